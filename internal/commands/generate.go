package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/okra-platform/apiforge/internal/config"
	"github.com/okra-platform/apiforge/internal/output"
	"github.com/okra-platform/apiforge/internal/scaffold"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/rs/zerolog/log"
)

// ConfigLoader finds the project configuration
type ConfigLoader interface {
	LoadConfig() (*config.Config, string, error)
}

// defaultConfigLoader falls back to the defaults in the working directory
// when no apiforge.json exists
type defaultConfigLoader struct{}

func (l *defaultConfigLoader) LoadConfig() (*config.Config, string, error) {
	cfg, root, err := config.LoadConfig()
	if errors.Is(err, config.ErrNotFound) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return config.Default(), wd, nil
	}
	return cfg, root, err
}

// GenerateDependencies for the new command
type GenerateDependencies struct {
	ConfigLoader ConfigLoader
	FileSystem   output.FileSystem
	Status       scaffold.Status
	Output       Output
}

// GenerateCommand scaffolds a project from a template document
type GenerateCommand struct {
	flags Flags
	deps  GenerateDependencies
}

// NewGenerateCommand creates a new command with default dependencies
func NewGenerateCommand(flags Flags) *GenerateCommand {
	return &GenerateCommand{
		flags: flags,
		deps: GenerateDependencies{
			ConfigLoader: &defaultConfigLoader{},
			FileSystem:   output.OSFileSystem{},
			Status:       scaffold.NewLogStatus(log.Logger),
			Output:       defaultOutput{},
		},
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (gc *GenerateCommand) WithDependencies(deps GenerateDependencies) *GenerateCommand {
	gc.deps = deps
	return gc
}

// settings loads the configuration with paths resolved and flags applied
func (gc *GenerateCommand) settings() (*config.Config, error) {
	cfg, root, err := gc.deps.ConfigLoader.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	cfg.Resolve(root)

	if gc.flags.Template != "" {
		cfg.Template = gc.flags.Template
	}
	if gc.flags.Output != "" {
		cfg.Output = gc.flags.Output
	}
	if gc.flags.Atomic {
		cfg.Atomic = true
	}
	return cfg, nil
}

// Execute runs the new command
func (gc *GenerateCommand) Execute(ctx context.Context) error {
	cfg, err := gc.settings()
	if err != nil {
		return err
	}
	return gc.generate(ctx, cfg)
}

func (gc *GenerateCommand) generate(ctx context.Context, cfg *config.Config) error {
	raw, err := template.LoadFile(cfg.Template)
	if err != nil {
		return fmt.Errorf("failed to load template %s: %w", cfg.Template, err)
	}

	s := scaffold.New(gc.deps.FileSystem, gc.deps.Status, scaffold.Options{Atomic: cfg.Atomic})
	result, err := s.Scaffold(ctx, raw, cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to generate project: %w", err)
	}

	gc.deps.Output.Printf("✅ Generated %s: %d files in %s\n", result.Template.ProjectName, len(result.Paths), result.ProjectDir)
	return nil
}
