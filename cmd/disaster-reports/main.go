package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mr1hm/go-disaster-reports/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "disaster-reports",
		Usage: "Disaster report tracking, triage and statistics service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Optional .env file loaded before reading the environment",
				Value:   ".env",
			},
		},
		Before: func(c *cli.Context) error {
			// A missing .env is fine; real environment variables still apply.
			if err := godotenv.Load(c.String("env-file")); err != nil {
				slog.Debug("no env file loaded", "path", c.String("env-file"), "error", err)
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			importCommand,
			templateCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Fatalf("application failed: %v", err)
	}
}
