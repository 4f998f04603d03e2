package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okra-platform/apiforge/internal/watch"
	"github.com/rs/zerolog/log"
)

// SignalNotifier abstracts os/signal for testing
type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (defaultSignalNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// TemplateWatcher is the part of watch.TemplateWatcher the command uses
type TemplateWatcher interface {
	Start(ctx context.Context) error
	Close() error
}

// WatcherFactory creates the watcher of the template file
type WatcherFactory func(target string, opts watch.Options, onChange func(ctx context.Context) error) (TemplateWatcher, error)

func newTemplateWatcher(target string, opts watch.Options, onChange func(ctx context.Context) error) (TemplateWatcher, error) {
	return watch.NewTemplateWatcher(target, opts, onChange)
}

// WatchCommand regenerates the project on every template change
type WatchCommand struct {
	generate       *GenerateCommand
	watcherFactory WatcherFactory
	signalNotifier SignalNotifier
}

// NewWatchCommand creates a new watch command with default dependencies
func NewWatchCommand(flags Flags) *WatchCommand {
	return &WatchCommand{
		generate:       NewGenerateCommand(flags),
		watcherFactory: newTemplateWatcher,
		signalNotifier: defaultSignalNotifier{},
	}
}

// Execute generates once, then again after each change until interrupted
func (wc *WatchCommand) Execute(ctx context.Context) error {
	cfg, err := wc.generate.settings()
	if err != nil {
		return err
	}
	out := wc.generate.deps.Output

	out.Printf("👀 Watching %s\n", cfg.Template)
	regenerate := func(ctx context.Context) error {
		return wc.generate.generate(ctx, cfg)
	}
	if err := regenerate(ctx); err != nil {
		out.Printf("❌ %v\n", err)
	}

	opts := watch.Options{
		Debounce: time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
		Exclude:  cfg.Watch.Exclude,
		Logger:   log.Logger,
	}
	watcher, err := wc.watcherFactory(cfg.Template, opts, func(ctx context.Context) error {
		err := regenerate(ctx)
		if err != nil {
			out.Printf("❌ %v\n", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to watch template: %w", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	wc.signalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer wc.signalNotifier.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			out.Println("\n👋 Stopped watching")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watcher error: %w", err)
	}
	return nil
}
