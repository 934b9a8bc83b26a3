package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/mr1hm/go-disaster-reports/internal/ingestion"
	"github.com/mr1hm/go-disaster-reports/internal/worker"
)

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "Import disaster reports from one or more CSV files",
	ArgsUsage: " ",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "CSV file to import; repeat for several files",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Files imported in parallel",
			Value: 2,
		},
	},
	Action: importFiles,
}

func importFiles(c *cli.Context) error {
	ctx := c.Context
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	files := c.StringSlice("file")

	var (
		mu    sync.Mutex
		total ingestion.Result
	)
	pool := worker.NewPool(c.Int("workers"), len(files), func(ctx context.Context, path string) error {
		res, err := importFile(ctx, a.importer, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		mu.Lock()
		total.Added += res.Added
		total.Skipped += res.Skipped
		mu.Unlock()

		fmt.Fprintf(c.App.Writer, "%s: added %d, skipped %d\n", path, res.Added, res.Skipped)
		return nil
	})

	pool.Start(ctx)
	for _, f := range files {
		if err := pool.Submit(ctx, f); err != nil {
			break
		}
	}
	err = pool.Stop()

	slog.Info("import finished", "files", len(files), "added", total.Added, "skipped", total.Skipped)
	return err
}

// importFile runs one file through the pipeline. Each file is its own batch:
// a broken file adds nothing but does not undo the others.
func importFile(ctx context.Context, p *ingestion.Pipeline, path string) (ingestion.Result, error) {
	// Checked before opening so a wrong extension never touches the disk.
	if err := ingestion.CheckFilename(filepath.Base(path)); err != nil {
		return ingestion.Result{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return ingestion.Result{}, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	return p.Import(ctx, f, filepath.Base(path))
}
