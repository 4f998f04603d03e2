// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"fmt"
	"os"
)

type Flags struct {
	LogLevel string
	// Template, Output and Atomic override apiforge.json
	Template string
	Output   string
	Atomic   bool
}

type Controller struct {
	Flags *Flags
}

// New generates a project from the configured template
func (c *Controller) New(ctx context.Context) error {
	return NewGenerateCommand(c.flags()).Execute(ctx)
}

// Watch regenerates the project whenever the template changes
func (c *Controller) Watch(ctx context.Context) error {
	return NewWatchCommand(c.flags()).Execute(ctx)
}

// List prints the supported feature kinds and property types
func (c *Controller) List(ctx context.Context) error {
	return writeCatalog(os.Stdout)
}

func (c *Controller) flags() Flags {
	if c.Flags == nil {
		return Flags{}
	}
	return *c.Flags
}

// Output prints user-facing messages
type Output interface {
	Printf(format string, args ...any)
	Println(args ...any)
}

type defaultOutput struct{}

func (defaultOutput) Printf(format string, args ...any) {
	fmt.Printf(format, args...)
}

func (defaultOutput) Println(args ...any) {
	fmt.Println(args...)
}
