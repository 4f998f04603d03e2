// Package project renders the build files and the entrypoint of a generated service
package project

import (
	"bytes"
	"embed"
	"sort"
	"text/template"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/authz"
	"github.com/okra-platform/apiforge/internal/codegen/infra"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
)

//go:embed templates/*
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Module is one requirement of the generated go.mod
type Module struct {
	Path    string
	Version string
}

// Requirements lists the modules the generated service depends on, sorted by path
func Requirements(u codegen.Unit) []Module {
	driver := codegen.DriverFor(u.Template.DbContext.Provider)
	mods := []Module{
		{codegen.ImportFakeit, "v6.28.0"},
		{codegen.ImportGin, "v1.10.0"},
		{codegen.ImportUUID, "v1.6.0"},
		{"github.com/stretchr/testify", "v1.10.0"},
		{infra.ImportYAML, "v3.0.1"},
		{driver.Import, driver.Version},
		{codegen.ImportGorm, "v1.25.12"},
	}
	if u.Template.AddJwtAuthentication {
		mods = append(mods, Module{authz.ImportJWT, "v5.2.1"})
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Path < mods[j].Path })
	return mods
}

// Generate renders go.mod, .gitignore, README.md and the API entrypoint
func Generate(u codegen.Unit) ([]codegen.Artifact, error) {
	files := []struct {
		name     string
		template string
		data     any
	}{
		{"go.mod", "go.mod.tmpl", goModData(u)},
		{".gitignore", "gitignore.tmpl", nil},
		{"README.md", "README.md.tmpl", readmeData(u)},
	}

	artifacts := make([]codegen.Artifact, 0, len(files)+1)
	for _, f := range files {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, f.template, f.data); err != nil {
			return nil, u.Errorf("render %s: %v", f.name, err)
		}
		art, err := codegen.TextArtifact(u, layout.ProjectFile, layout.Target{Name: f.name}, buf.String())
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, art)
	}

	entry, err := mainFile(u)
	if err != nil {
		return nil, err
	}
	return append(artifacts, entry), nil
}

func goModData(u codegen.Unit) any {
	return struct {
		Module    string
		GoVersion string
		Requires  []Module
	}{
		Module:    u.Resolver.ModulePath(),
		GoVersion: infra.GoVersion,
		Requires:  Requirements(u),
	}
}

type readmeEntity struct {
	Name     string
	Features []string
}

func readmeData(u codegen.Unit) any {
	t := u.Template
	entities := make([]readmeEntity, 0, len(t.Entities))
	for i := range t.Entities {
		e := &t.Entities[i]
		re := readmeEntity{Name: naming.Entity(e)}
		for _, f := range e.Features {
			re.Features = append(re.Features, naming.Feature(e, f))
		}
		entities = append(entities, re)
	}

	return struct {
		ProjectName      string
		Description      string
		Port             int
		Provider         string
		Environment      string
		ConnectionString string
		Entities         []readmeEntity
	}{
		ProjectName:      t.ProjectName,
		Description:      t.SwaggerConfig.Description,
		Port:             t.Port,
		Provider:         t.DbContext.Provider,
		Environment:      t.Environment.EnvironmentName,
		ConnectionString: t.ConnectionString(),
		Entities:         entities,
	}
}

func mainFile(u codegen.Unit) (codegen.Artifact, error) {
	t := u.Template

	return u.GoFile(layout.ApiEntrypoint, "main", func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportContext)
		im.Add(codegen.ImportFmt)
		im.Add("log")
		im.Add("net/http")
		im.Add(codegen.ImportGin)
		im.Add(u.Import(layout.Infrastructure))

		if t.SwaggerConfig.AddSwaggerComments {
			writeSwaggerComments(w, u)
		}
		w.WriteBlock("func main() {", "}", func() {
			w.WriteLine("ctx := context.Background()")
			w.BlankLine()
			w.WriteLine("settings, err := infrastructure.LoadSettings()")
			w.WriteBlock("if err != nil {", "}", func() {
				w.WriteLine(`log.Fatalf("load settings: %v", err)`)
			})
			w.WriteLine("db, err := infrastructure.OpenDatabase(ctx, settings)")
			w.WriteBlock("if err != nil {", "}", func() {
				w.WriteLine(`log.Fatalf("open database: %v", err)`)
			})
			w.BlankLine()
			w.WriteLine("router := gin.Default()")
			if t.AddJwtAuthentication {
				w.WriteLine("infrastructure.RegisterAuth(router, settings)")
			}
			w.WriteBlock(`router.GET("/health", func(c *gin.Context) {`, "})", func() {
				w.WriteLine("sqlDB, err := db.DB().DB()")
				w.WriteBlock("if err == nil {", "}", func() {
					w.WriteLine("err = sqlDB.PingContext(c.Request.Context())")
				})
				w.WriteBlock("if err != nil {", "}", func() {
					w.WriteLine(`c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})`)
					w.WriteLine("return")
				})
				w.WriteLine(`c.JSON(http.StatusOK, gin.H{"status": "healthy"})`)
			})
			w.BlankLine()
			w.WriteBlock(`if err := router.Run(fmt.Sprintf(":%d", settings.Port)); err != nil {`, "}", func() {
				w.WriteLine(`log.Fatalf("serve: %v", err)`)
			})
		})
		return nil
	})
}

// writeSwaggerComments writes the general API annotations read by swag
func writeSwaggerComments(w *writer.Writer, u codegen.Unit) {
	t := u.Template
	w.WriteLinef("// @title %s", t.SwaggerConfig.Title)
	if t.SwaggerConfig.Description != "" {
		w.WriteLinef("// @description %s", t.SwaggerConfig.Description)
	}
	w.WriteLine("// @version 1.0")
	w.WriteLinef("// @host localhost:%d", t.Port)
	w.WriteLine("// @BasePath /")
	if t.AddJwtAuthentication {
		a := t.Environment.AuthSettings
		w.WriteLine("// @securityDefinitions.oauth2.accessCode OAuth2")
		w.WriteLinef("// @tokenUrl %s", a.TokenURL)
		w.WriteLinef("// @authorizationUrl %s", a.AuthorizationURL)
	}
}
