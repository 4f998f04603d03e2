// Package output writes generated files to disk
package output

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm  os.FileMode = 0755
	filePerm os.FileMode = 0644
)

// FileSystem defines the file operations the writer needs
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// OSFileSystem is the FileSystem backed by the os package
type OSFileSystem struct{}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Writer creates or overwrites files, creating parent directories as needed
type Writer struct {
	fs FileSystem
}

// NewWriter returns a writer over fs; a nil fs writes to the local disk
func NewWriter(fs FileSystem) *Writer {
	if fs == nil {
		fs = OSFileSystem{}
	}
	return &Writer{fs: fs}
}

// CreateFile writes content to path, replacing any existing file
func (w *Writer) CreateFile(path string, content []byte) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := w.fs.WriteFile(path, content, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
