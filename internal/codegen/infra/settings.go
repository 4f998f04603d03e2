package infra

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"gopkg.in/yaml.v3"
)

// ImportYAML is the YAML library the generated service reads its settings with
const ImportYAML = "gopkg.in/yaml.v3"

// Environment variables read by the generated service
const (
	EnvConfigDir        = "CONFIG_DIR"
	EnvEnvironment      = "APP_ENV"
	EnvConnectionString = "CONNECTION_STRING"
)

// appSettings is the shape of the generated appsettings files
type appSettings struct {
	Port             int           `yaml:"port,omitempty"`
	ConnectionString string        `yaml:"connectionString,omitempty"`
	Auth             *authSettings `yaml:"auth,omitempty"`
}

type authSettings struct {
	Authority        string `yaml:"authority"`
	Audience         string `yaml:"audience"`
	AuthorizationURL string `yaml:"authorizationUrl"`
	TokenURL         string `yaml:"tokenUrl"`
	ClientID         string `yaml:"clientId"`
	ClientSecret     string `yaml:"clientSecret"`
}

// appSettingsFiles renders the base settings and the overlay of the template's environment
func appSettingsFiles(u codegen.Unit) ([]codegen.Artifact, error) {
	t := u.Template

	base := appSettings{Port: t.Port}
	if t.AddJwtAuthentication {
		a := t.Environment.AuthSettings
		base.Auth = &authSettings{
			Authority:        a.Authority,
			Audience:         a.Audience,
			AuthorizationURL: a.AuthorizationURL,
			TokenURL:         a.TokenURL,
			ClientID:         a.ClientID,
			ClientSecret:     a.ClientSecret,
		}
	}
	overlay := appSettings{ConnectionString: t.ConnectionString()}

	files := []struct {
		name     string
		settings appSettings
	}{
		{"appsettings.yaml", base},
		{"appsettings." + t.Environment.EnvironmentName + ".yaml", overlay},
	}

	artifacts := make([]codegen.Artifact, 0, len(files))
	for _, f := range files {
		data, err := yaml.Marshal(f.settings)
		if err != nil {
			return nil, u.Errorf("marshal %s: %v", f.name, err)
		}
		art, err := codegen.TextArtifact(u, layout.AppSettings, layout.Target{Name: f.name}, string(data))
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, art)
	}
	return artifacts, nil
}

func settingsFile(u codegen.Unit) (codegen.Artifact, error) {
	t := u.Template

	return u.GoFile(layout.Infrastructure, "Settings", func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportErrors)
		im.Add(codegen.ImportFmt)
		im.Add("os")
		im.Add("path/filepath")
		im.Add(ImportYAML)

		w.WriteLine("// Settings configures the service")
		w.WriteBlock("type Settings struct {", "}", func() {
			w.WriteLine("Environment      string `yaml:\"-\"`")
			w.WriteLine("Port             int    `yaml:\"port\"`")
			w.WriteLine("ConnectionString string `yaml:\"connectionString\"`")
			if t.AddJwtAuthentication {
				w.WriteLine("Auth AuthSettings `yaml:\"auth\"`")
			}
		})
		w.BlankLine()

		if t.AddJwtAuthentication {
			w.WriteLine("// AuthSettings configures token validation")
			w.WriteBlock("type AuthSettings struct {", "}", func() {
				w.WriteLine("Authority        string `yaml:\"authority\"`")
				w.WriteLine("Audience         string `yaml:\"audience\"`")
				w.WriteLine("AuthorizationURL string `yaml:\"authorizationUrl\"`")
				w.WriteLine("TokenURL         string `yaml:\"tokenUrl\"`")
				w.WriteLine("ClientID         string `yaml:\"clientId\"`")
				w.WriteLine("ClientSecret     string `yaml:\"clientSecret\"`")
			})
			w.BlankLine()
		}

		w.WriteLine("// LoadSettings reads appsettings.yaml and the overlay of the current environment")
		w.WriteLinef("// from %s (default src/config). %s overrides the connection string.", EnvConfigDir, EnvConnectionString)
		w.WriteBlock("func LoadSettings() (Settings, error) {", "}", func() {
			w.WriteLinef("dir := os.Getenv(%q)", EnvConfigDir)
			w.WriteBlock(`if dir == "" {`, "}", func() {
				w.WriteLine(`dir = "src/config"`)
			})
			w.WriteLinef("env := os.Getenv(%q)", EnvEnvironment)
			w.WriteBlock(`if env == "" {`, "}", func() {
				w.WriteLinef("env = %q", t.Environment.EnvironmentName)
			})
			w.BlankLine()
			w.WriteLinef("settings := Settings{Port: %d}", t.Port)
			w.WriteBlock(`for _, name := range []string{"appsettings.yaml", "appsettings." + env + ".yaml"} {`, "}", func() {
				w.WriteLine("data, err := os.ReadFile(filepath.Join(dir, name))")
				w.WriteBlock("if errors.Is(err, os.ErrNotExist) {", "}", func() {
					w.WriteLine("continue")
				})
				w.WriteBlock("if err != nil {", "}", func() {
					w.WriteLine(`return Settings{}, fmt.Errorf("read %s: %w", name, err)`)
				})
				w.WriteBlock("if err := yaml.Unmarshal(data, &settings); err != nil {", "}", func() {
					w.WriteLine(`return Settings{}, fmt.Errorf("parse %s: %w", name, err)`)
				})
			})
			w.BlankLine()
			w.WriteBlock("if dsn := os.Getenv(\""+EnvConnectionString+"\"); dsn != \"\" {", "}", func() {
				w.WriteLine("settings.ConnectionString = dsn")
			})
			w.WriteLine("settings.Environment = env")
			w.WriteLine("return settings, nil")
		})
		return nil
	})
}

func databaseRegistrationFile(u codegen.Unit) (codegen.Artifact, error) {
	name := naming.DataContext(u.Template)

	return u.GoFile(layout.Infrastructure, "DatabaseRegistration", func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportContext)
		im.Add(codegen.ImportFmt)
		ctxType := u.ContextType(im)

		w.WriteLine("// OpenDatabase connects to the configured database and migrates it")
		w.WriteBlock("func OpenDatabase(ctx context.Context, settings Settings) ("+ctxType+", error) {", "}", func() {
			w.WriteLine("db, err := databases.Open(settings.ConnectionString)")
			w.WriteBlock("if err != nil {", "}", func() {
				w.WriteLine(`return nil, fmt.Errorf("open database: %w", err)`)
			})
			w.BlankLine()
			w.WriteLinef("dbContext := databases.New%s(db)", name)
			w.WriteBlock("if err := dbContext.Migrate(ctx); err != nil {", "}", func() {
				w.WriteLine(`return nil, fmt.Errorf("migrate database: %w", err)`)
			})
			w.WriteLine("return dbContext, nil")
		})
		return nil
	})
}
