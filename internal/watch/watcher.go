// Package watch regenerates a project whenever its template document changes
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Options configure a TemplateWatcher
type Options struct {
	// Debounce groups bursts of events, as editors often write a file in several steps
	Debounce time.Duration
	// Exclude holds base-name patterns that never trigger
	Exclude []string
	Logger  zerolog.Logger
}

// TemplateWatcher calls onChange after the template file is written or replaced
type TemplateWatcher struct {
	watcher  *fsnotify.Watcher
	target   string
	exclude  []string
	debounce time.Duration
	logger   zerolog.Logger
	onChange func(ctx context.Context) error
}

// NewTemplateWatcher watches the directory of target. The directory is watched
// rather than the file so that editors replacing the file keep triggering.
func NewTemplateWatcher(target string, opts Options, onChange func(ctx context.Context) error) (*TemplateWatcher, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", target, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", filepath.Dir(abs), err)
	}

	return &TemplateWatcher{
		watcher:  watcher,
		target:   abs,
		exclude:  opts.Exclude,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onChange: onChange,
	}, nil
}

// Start processes events until ctx is done. Regeneration errors are logged
// and watching continues.
func (tw *TemplateWatcher) Start(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if !tw.shouldTrigger(event) {
				continue
			}
			tw.logger.Debug().Str("path", event.Name).Stringer("op", event.Op).Msg("template changed")
			if timer == nil {
				timer = time.NewTimer(tw.debounce)
			} else {
				timer.Reset(tw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := tw.onChange(ctx); err != nil {
				tw.logger.Error().Err(err).Str("template", tw.target).Msg("regeneration failed")
			}

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			if err != nil {
				tw.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

// shouldTrigger reports whether event touches the template with content
func (tw *TemplateWatcher) shouldTrigger(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	base := filepath.Base(event.Name)
	for _, pattern := range tw.exclude {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return abs == tw.target
}

// Close stops the watcher
func (tw *TemplateWatcher) Close() error {
	return tw.watcher.Close()
}
