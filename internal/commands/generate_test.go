package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okra-platform/apiforge/internal/config"
	"github.com/okra-platform/apiforge/internal/output"
	"github.com/okra-platform/apiforge/internal/scaffold"
	"github.com/okra-platform/apiforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerateCommand(flags Flags, loader ConfigLoader, out Output) *GenerateCommand {
	return NewGenerateCommand(flags).WithDependencies(GenerateDependencies{
		ConfigLoader: loader,
		FileSystem:   output.OSFileSystem{},
		Status:       scaffold.NopStatus{},
		Output:       out,
	})
}

func TestGenerateCommand_Execute_Success(t *testing.T) {
	// Test: The configured template is generated relative to the config directory
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "template.yaml"), []byte(testutil.MinimalTemplate), 0644))

	loader := new(mockConfigLoader)
	loader.On("LoadConfig").Return(&config.Config{Template: "template.yaml", Output: "out"}, root, nil)
	out := &mockOutput{}

	err := newTestGenerateCommand(Flags{}, loader, out).Execute(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "out", "Catalog", "go.mod"))
	assert.FileExists(t, filepath.Join(root, "out", "Catalog", "src", "features", "products", "get_product.go"))
	require.Len(t, out.all(), 1)
	assert.Contains(t, out.all()[0], "✅ Generated Catalog:")
	loader.AssertExpectations(t)
}

func TestGenerateCommand_settings(t *testing.T) {
	// Test: Flags override the configuration file
	tests := []struct {
		name  string
		flags Flags
		want  config.Config
	}{
		{
			name:  "config only",
			flags: Flags{},
			want:  config.Config{Template: "/project/template.yaml", Output: "/project"},
		},
		{
			name:  "flags override",
			flags: Flags{Template: "/tmp/other.yaml", Output: "/tmp/out", Atomic: true},
			want:  config.Config{Template: "/tmp/other.yaml", Output: "/tmp/out", Atomic: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(mockConfigLoader)
			loader.On("LoadConfig").Return(&config.Config{Template: "./template.yaml", Output: "./"}, "/project", nil)

			cfg, err := newTestGenerateCommand(tt.flags, loader, &mockOutput{}).settings()
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestGenerateCommand_Execute_Errors(t *testing.T) {
	// Test: Config, template and validation failures are reported with context
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "invalid.yaml"), []byte("projectName: Shop\nentities:\n  - name: Shop\n    properties:\n      - name: Id\n        type: int\n        isPrimaryKey: true\n"), 0644))

	tests := []struct {
		name        string
		setup       func(*mockConfigLoader)
		errContains string
	}{
		{
			name: "config load fails",
			setup: func(m *mockConfigLoader) {
				m.On("LoadConfig").Return(nil, "", errors.New("permission denied"))
			},
			errContains: "failed to load project config: permission denied",
		},
		{
			name: "template missing",
			setup: func(m *mockConfigLoader) {
				m.On("LoadConfig").Return(&config.Config{Template: "missing.yaml", Output: "out"}, root, nil)
			},
			errContains: "failed to load template",
		},
		{
			name: "template invalid",
			setup: func(m *mockConfigLoader) {
				m.On("LoadConfig").Return(&config.Config{Template: "invalid.yaml", Output: "out"}, root, nil)
			},
			errContains: "failed to generate project: invalid template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(mockConfigLoader)
			tt.setup(loader)

			err := newTestGenerateCommand(Flags{}, loader, &mockOutput{}).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.NoDirExists(t, filepath.Join(root, "out"))
		})
	}
}

func TestDefaultConfigLoader_FallsBackToDefaults(t *testing.T) {
	// Test: Without apiforge.json the defaults apply in the working directory
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, root, err := (&defaultConfigLoader{}).LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	expectedRoot, _ := filepath.EvalSymlinks(dir)
	actualRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, expectedRoot, actualRoot)
}
