package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/okra-platform/apiforge/internal/config"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/textcase"
)

const starterTemplateName = "template.yaml"

type InitOptions struct {
	ProjectName   string
	Provider      string
	Entity        string
	Auth          bool
	UseSoftDelete bool
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// InitCommand writes a starter template and apiforge.json
type InitCommand struct {
	filesystem FileSystem
	output     Output
	// dir receives the starter files
	dir string
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{
		filesystem: &osFileSystem{},
		output:     defaultOutput{},
		dir:        ".",
	}
}

func (c *Controller) Init(ctx context.Context) error {
	cmd := NewInitCommand()
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	var options *InitOptions
	var err error

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	templatePath := filepath.Join(ic.dir, starterTemplateName)
	if _, err := ic.filesystem.Stat(templatePath); err == nil {
		return fmt.Errorf("%s already exists", templatePath)
	}

	starter := starterTemplate(*options)
	if _, err := template.Prepare(starter); err != nil {
		return fmt.Errorf("starter template is invalid: %w", err)
	}
	data, err := template.Marshal(starter)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Template = "./" + starterTemplateName
	cfgData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := ic.filesystem.MkdirAll(ic.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := ic.filesystem.WriteFile(templatePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	if err := ic.filesystem.WriteFile(filepath.Join(ic.dir, config.FileName), append(cfgData, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	ic.output.Printf("✅ Created %s for %s. Run `apiforge new` to generate the project.\n", templatePath, options.ProjectName)
	return nil
}

// starterTemplate describes one entity with every single-record feature
func starterTemplate(o InitOptions) *template.ApiTemplate {
	return &template.ApiTemplate{
		ProjectName:          o.ProjectName,
		UseSoftDelete:        o.UseSoftDelete,
		AddJwtAuthentication: o.Auth,
		DbContext:            template.DataContextConfig{Provider: o.Provider},
		Entities: []template.Entity{{
			Name: o.Entity,
			Properties: []template.EntityProperty{
				{Name: "Id", Type: "guid", IsPrimaryKey: true},
				{Name: "Name", Type: "string"},
				{Name: "CreatedAt", Type: "datetime"},
			},
			Features: []template.Feature{
				{Type: template.GetRecord},
				{Type: template.GetList, IsPaged: true},
				{Type: template.AddRecord, IsProtected: o.Auth},
				{Type: template.UpdateRecord, IsProtected: o.Auth},
				{Type: template.DeleteRecord, IsProtected: o.Auth},
			},
		}},
	}
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{Provider: "postgres"}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	providers := make([]huh.Option[string], 0, len(template.Providers))
	for _, p := range template.Providers {
		providers = append(providers, huh.NewOption(p, p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Description("Name of the generated service").
				Value(&options.ProjectName).
				Validate(validateIdentifier("project name")),

			huh.NewSelect[string]().
				Title("Database").
				Description("Storage provider of the generated service").
				Options(providers...).
				Value(&options.Provider),

			huh.NewInput().
				Title("First entity").
				Description("Singular name, e.g. Order").
				Value(&options.Entity).
				Validate(func(s string) error {
					if err := validateIdentifier("entity name")(s); err != nil {
						return err
					}
					if textcase.Pascal(s) == textcase.Pascal(options.ProjectName) {
						return fmt.Errorf("entity name must differ from the project name")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Add JWT authentication?").
				Value(&options.Auth),

			huh.NewConfirm().
				Title("Use soft delete?").
				Value(&options.UseSoftDelete),
		),
	)
}

func validateIdentifier(what string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		if textcase.Pascal(s) == "" {
			return fmt.Errorf("%s must contain letters", what)
		}
		return nil
	}
}
