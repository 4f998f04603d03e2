// Package infra renders the cross-cutting infrastructure of a generated
// service: settings loading and database registration, the appsettings files,
// container descriptors and, when requested, GitHub workflows and dependabot.
// None of it depends on the entities.
package infra

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/layout"
	model "github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/textcase"
)

// GoVersion is the Go release the generated service builds with
const GoVersion = "1.24"

//go:embed templates/*
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Generate renders every infrastructure artifact
func Generate(u codegen.Unit) ([]codegen.Artifact, error) {
	steps := []func(codegen.Unit) ([]codegen.Artifact, error){
		one(settingsFile),
		one(databaseRegistrationFile),
		appSettingsFiles,
		containerFiles,
		githubFiles,
	}

	var artifacts []codegen.Artifact
	for _, step := range steps {
		arts, err := step(u)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, arts...)
	}
	return artifacts, nil
}

func one(step func(codegen.Unit) (codegen.Artifact, error)) func(codegen.Unit) ([]codegen.Artifact, error) {
	return func(u codegen.Unit) ([]codegen.Artifact, error) {
		art, err := step(u)
		if err != nil {
			return nil, err
		}
		return []codegen.Artifact{art}, nil
	}
}

// database describes the database container of a provider
type database struct {
	Image       string
	Port        int
	Environment []string
}

func databaseFor(t *model.ApiTemplate) *database {
	d := t.DockerConfig
	env := func(pairs ...string) []string {
		out := make([]string, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			out = append(out, pairs[i]+": "+strconv.Quote(pairs[i+1]))
		}
		return out
	}

	switch t.DbContext.Provider {
	case "mysql":
		return &database{Image: "mysql:8.4", Port: 3306, Environment: env(
			"MYSQL_ROOT_PASSWORD", d.DBPassword,
			"MYSQL_DATABASE", d.DBName,
		)}
	case "sqlserver":
		return &database{Image: "mcr.microsoft.com/mssql/server:2022-latest", Port: 1433, Environment: env(
			"ACCEPT_EULA", "Y",
			"MSSQL_SA_PASSWORD", d.DBPassword,
		)}
	case "sqlite":
		return nil
	default:
		return &database{Image: "postgres:16", Port: 5432, Environment: env(
			"POSTGRES_USER", d.DBUser,
			"POSTGRES_PASSWORD", d.DBPassword,
			"POSTGRES_DB", d.DBName,
		)}
	}
}

// containerData feeds the container and CI templates
type containerData struct {
	ProjectName               string
	Service                   string
	GoVersion                 string
	Provider                  string
	Environment               string
	Port                      int
	APIPort                   int
	DBPort                    int
	AuthServerPort            int
	ContainerConnectionString string
	Database                  *database
}

func newContainerData(t *model.ApiTemplate) containerData {
	data := containerData{
		ProjectName:               t.ProjectName,
		Service:                   textcase.Kebab(t.ProjectName),
		GoVersion:                 GoVersion,
		Provider:                  t.DbContext.Provider,
		Environment:               t.Environment.EnvironmentName,
		Port:                      t.Port,
		APIPort:                   t.DockerConfig.APIPort,
		DBPort:                    t.DockerConfig.DBPort,
		ContainerConnectionString: strings.Replace(t.ConnectionString(), "localhost", "db", 1),
		Database:                  databaseFor(t),
	}
	if t.AddJwtAuthentication {
		data.AuthServerPort = t.DockerConfig.AuthServerPort
	}
	return data
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func textFiles(u codegen.Unit, kind layout.ArtifactKind, files map[string]string, order []string) ([]codegen.Artifact, error) {
	data := newContainerData(u.Template)
	artifacts := make([]codegen.Artifact, 0, len(order))
	for _, name := range order {
		content, err := render(files[name], data)
		if err != nil {
			return nil, u.Errorf("%v", err)
		}
		art, err := codegen.TextArtifact(u, kind, layout.Target{Name: name}, content)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, art)
	}
	return artifacts, nil
}

func containerFiles(u codegen.Unit) ([]codegen.Artifact, error) {
	files := map[string]string{
		"Dockerfile":          "Dockerfile.tmpl",
		".dockerignore":       "dockerignore.tmpl",
		"docker-compose.yaml": "docker-compose.yaml.tmpl",
	}
	return textFiles(u, layout.ContainerFile, files, []string{"Dockerfile", ".dockerignore", "docker-compose.yaml"})
}

func githubFiles(u codegen.Unit) ([]codegen.Artifact, error) {
	if !u.Template.AddGithubActions {
		return nil, nil
	}

	workflow, err := textFiles(u, layout.GithubWorkflow, map[string]string{u.Template.ProjectName: "workflow.yaml.tmpl"}, []string{u.Template.ProjectName})
	if err != nil {
		return nil, err
	}
	content, err := render("dependabot.yaml.tmpl", nil)
	if err != nil {
		return nil, u.Errorf("%v", err)
	}
	bot, err := codegen.TextArtifact(u, layout.DependencyBot, layout.Target{}, content)
	if err != nil {
		return nil, err
	}
	return append(workflow, bot), nil
}
