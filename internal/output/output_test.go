package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFileSystem struct {
	mock.Mock
}

func (m *mockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	args := m.Called(path, perm)
	return args.Error(0)
}

func (m *mockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	args := m.Called(name, data, perm)
	return args.Error(0)
}

func TestCreateFile_CreatesParents(t *testing.T) {
	// Test: Missing parent directories are created on disk
	dir := t.TempDir()
	path := filepath.Join(dir, "src", "domain", "orders", "order.go")

	w := NewWriter(nil)
	require.NoError(t, w.CreateFile(path, []byte("package orders\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package orders\n", string(data))
}

func TestCreateFile_Overwrites(t *testing.T) {
	// Test: Writing the same path twice keeps the last content
	path := filepath.Join(t.TempDir(), "README.md")

	w := NewWriter(OSFileSystem{})
	require.NoError(t, w.CreateFile(path, []byte("first")))
	require.NoError(t, w.CreateFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestCreateFile_Errors(t *testing.T) {
	// Test: File system failures are wrapped with the path
	tests := []struct {
		name     string
		mkdirErr error
		writeErr error
		want     string
	}{
		{"mkdir fails", errors.New("read-only"), nil, "failed to create directory for /out/a.go: read-only"},
		{"write fails", nil, errors.New("disk full"), "failed to write /out/a.go: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &mockFileSystem{}
			fs.On("MkdirAll", "/out", dirPerm).Return(tt.mkdirErr)
			if tt.mkdirErr == nil {
				fs.On("WriteFile", "/out/a.go", []byte("x"), filePerm).Return(tt.writeErr)
			}

			err := NewWriter(fs).CreateFile("/out/a.go", []byte("x"))
			require.Error(t, err)
			assert.EqualError(t, err, tt.want)
			fs.AssertExpectations(t)
		})
	}
}
