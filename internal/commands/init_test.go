package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/okra-platform/apiforge/internal/config"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFileSystem struct {
	statCalls    []string
	mkdirAllErr  error
	writeFileErr error
	files        map[string][]byte
}

func (m *mockFileSystem) Stat(name string) (os.FileInfo, error) {
	m.statCalls = append(m.statCalls, name)
	if _, ok := m.files[name]; ok {
		return nil, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return m.mkdirAllErr
}

func (m *mockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.writeFileErr != nil {
		return m.writeFileErr
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = data
	return nil
}

func TestInitCommand_Run_FullFlow(t *testing.T) {
	// Test: The starter template and config are written and the template validates
	mockFS := &mockFileSystem{}
	out := &mockOutput{}
	cmd := &InitCommand{
		filesystem: mockFS,
		output:     out,
		dir:        "/work",
		testOptions: &InitOptions{
			ProjectName: "OrderService",
			Provider:    "mysql",
			Entity:      "Order",
			Auth:        true,
		},
	}

	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, mockFS.statCalls, "/work/template.yaml")

	raw, err := template.Parse(mockFS.files["/work/template.yaml"])
	require.NoError(t, err)
	tmpl, err := template.Prepare(raw)
	require.NoError(t, err)
	assert.Equal(t, "mysql", tmpl.DbContext.Provider)
	assert.True(t, tmpl.AddJwtAuthentication)
	require.Len(t, tmpl.Entities, 1)
	assert.Len(t, tmpl.Entities[0].Features, 5)
	assert.True(t, tmpl.HasProtectedFeatures())

	var cfg config.Config
	require.NoError(t, json.Unmarshal(mockFS.files["/work/"+config.FileName], &cfg))
	assert.Equal(t, "./template.yaml", cfg.Template)

	require.Len(t, out.all(), 1)
	assert.Contains(t, out.all()[0], "✅ Created /work/template.yaml for OrderService")
}

func TestInitCommand_Run_Errors(t *testing.T) {
	// Test: Existing templates, invalid answers and write failures are reported
	valid := InitOptions{ProjectName: "Shop", Provider: "postgres", Entity: "Order"}

	tests := []struct {
		name        string
		fs          *mockFileSystem
		options     InitOptions
		errContains string
	}{
		{
			name:        "template exists",
			fs:          &mockFileSystem{files: map[string][]byte{"template.yaml": nil}},
			options:     valid,
			errContains: "template.yaml already exists",
		},
		{
			name:        "entity named like project",
			fs:          &mockFileSystem{},
			options:     InitOptions{ProjectName: "Shop", Provider: "postgres", Entity: "Shop"},
			errContains: "starter template is invalid",
		},
		{
			name:        "mkdir fails",
			fs:          &mockFileSystem{mkdirAllErr: errors.New("read-only")},
			options:     valid,
			errContains: "failed to create directory",
		},
		{
			name:        "write fails",
			fs:          &mockFileSystem{writeFileErr: errors.New("disk full")},
			options:     valid,
			errContains: "failed to write template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := tt.options
			cmd := &InitCommand{filesystem: tt.fs, output: &mockOutput{}, dir: ".", testOptions: &options}

			err := cmd.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestInitCommand_RealFileSystem(t *testing.T) {
	// Test: The default file system writes both files into the directory
	dir := filepath.Join(t.TempDir(), "api")
	cmd := NewInitCommand()
	cmd.dir = dir
	cmd.output = &mockOutput{}
	cmd.testOptions = &InitOptions{ProjectName: "Library", Provider: "sqlite", Entity: "Book", UseSoftDelete: true}

	require.NoError(t, cmd.Run(context.Background()))
	assert.FileExists(t, filepath.Join(dir, "template.yaml"))
	assert.FileExists(t, filepath.Join(dir, config.FileName))
}

func TestValidateIdentifier(t *testing.T) {
	// Test: Names must be non-empty and contain letters
	tests := []struct {
		input   string
		wantErr string
	}{
		{"Order", ""},
		{"line item", ""},
		{"", "entity name cannot be empty"},
		{"--", "entity name must contain letters"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := validateIdentifier("entity name")(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

// Integration test for the form - skip in CI but useful for local development
func TestInitCommand_promptInitOptions_Interactive(t *testing.T) {
	// Always skip this test in automated runs to prevent deadlocks
	if os.Getenv("INTERACTIVE_TEST") != "true" {
		t.Skip("Skipping interactive test. Set INTERACTIVE_TEST=true to run")
	}

	// Test: form accepts input via tea.WithInput
	cmd := &InitCommand{filesystem: &mockFileSystem{}, output: &mockOutput{}, dir: "."}

	// project name, provider (second), entity, then accept both confirms
	input := strings.NewReader("Shop\n\x1b[B\nOrder\n\n\n")

	options, err := cmd.promptInitOptions(
		tea.WithInput(input),
		tea.WithoutRenderer(),
	)
	require.NoError(t, err)
	assert.Equal(t, "Shop", options.ProjectName)
	assert.Equal(t, "mysql", options.Provider)
	assert.Equal(t, "Order", options.Entity)
}
