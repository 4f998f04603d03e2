package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/apiforge/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func generateFlags(flags *commands.Flags) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "template",
			Aliases:     []string{"t"},
			Usage:       "template document to generate from (overrides apiforge.json)",
			Destination: &flags.Template,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "directory that receives the project folder (overrides apiforge.json)",
			Destination: &flags.Output,
		},
		&cli.BoolFlag{
			Name:        "atomic",
			Usage:       "render every file before writing any",
			Destination: &flags.Atomic,
		},
	}
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "apiforge",
		Usage:   "Scaffold a layered Go API service from a template document",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("APIFORGE_LOG_LEVEL"),
				Value:       "info",
				Destination: &ctrl.Flags.LogLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a starter template and apiforge.json",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:  "new",
				Usage: "Generate a project from the template",
				Flags: generateFlags(ctrl.Flags),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.New(ctx)
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate the project whenever the template changes",
				Flags: generateFlags(ctrl.Flags),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx)
				},
			},
			{
				Name:  "list",
				Usage: "List feature kinds, property types and providers",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.List(ctx)
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run apiforge")
	}
}
