package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mr1hm/go-disaster-reports/internal/seed"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Create the database schema and exit",
	Action: func(c *cli.Context) error {
		a, err := newApp(c.Context)
		if err != nil {
			return err
		}
		defer a.Close()

		slog.Info("database migrated", "path", a.cfg.DB.Path)
		return nil
	},
}

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Load sample reports and alerts into an empty database",
	Action: func(c *cli.Context) error {
		a, err := newApp(c.Context)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := runSeed(c.Context, a)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "seeded %d reports and %d alerts\n", sum.Reports, sum.Alerts)
		return nil
	},
}

func runSeed(ctx context.Context, a *app) (seed.Summary, error) {
	sum, err := seed.Run(ctx, seed.Stores{
		Reports:       a.reports,
		ReportCounter: a.db,
		Alerts:        a.db,
	}, time.Now())
	if err != nil {
		return sum, fmt.Errorf("failed to seed database: %w", err)
	}
	return sum, nil
}
