package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateWatcher_shouldTrigger(t *testing.T) {
	// Test: Only writes and creations of the template itself trigger
	tests := []struct {
		name    string
		exclude []string
		event   fsnotify.Event
		want    bool
	}{
		{"write to template", nil, fsnotify.Event{Name: "/project/template.yaml", Op: fsnotify.Write}, true},
		{"template recreated", nil, fsnotify.Event{Name: "/project/template.yaml", Op: fsnotify.Create}, true},
		{"template removed", nil, fsnotify.Event{Name: "/project/template.yaml", Op: fsnotify.Remove}, false},
		{"chmod only", nil, fsnotify.Event{Name: "/project/template.yaml", Op: fsnotify.Chmod}, false},
		{"sibling file", nil, fsnotify.Event{Name: "/project/other.yaml", Op: fsnotify.Write}, false},
		{"excluded pattern", []string{"template.*"}, fsnotify.Event{Name: "/project/template.yaml", Op: fsnotify.Write}, false},
		{"editor swap file", []string{"*.swp"}, fsnotify.Event{Name: "/project/.template.yaml.swp", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := &TemplateWatcher{target: "/project/template.yaml", exclude: tt.exclude}
			assert.Equal(t, tt.want, tw.shouldTrigger(tt.event))
		})
	}
}

func TestTemplateWatcher_MissingDirectory(t *testing.T) {
	// Test: Watching a template in a missing directory fails
	_, err := NewTemplateWatcher(filepath.Join(t.TempDir(), "missing", "template.yaml"), Options{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch directory")
}

func TestTemplateWatcher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	// Test: A burst of writes regenerates once and failures do not stop watching

	dir := t.TempDir()
	target := filepath.Join(dir, "template.yaml")
	require.NoError(t, os.WriteFile(target, []byte("projectName: Shop\n"), 0644))

	var calls atomic.Int32
	tw, err := NewTemplateWatcher(target, Options{Debounce: 50 * time.Millisecond, Logger: zerolog.Nop()}, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("invalid template")
	})
	require.NoError(t, err)
	defer tw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error, 1)
	go func() {
		errChan <- tw.Start(ctx)
	}()

	// Give watcher time to start
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("projectName: Shop\n"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(target, []byte("projectName: Store\n"), 0644))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errChan, context.Canceled)
}
