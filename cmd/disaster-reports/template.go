package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mr1hm/go-disaster-reports/internal/ingestion"
)

var templateCommand = &cli.Command{
	Name:  "template",
	Usage: "Write the example CSV import template",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Destination file; stdout when empty",
		},
	},
	Action: func(c *cli.Context) error {
		data := ingestion.Template()

		out := c.String("out")
		if out == "" {
			_, err := c.App.Writer.Write(data)
			return err
		}

		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("error writing template: %w", err)
		}
		fmt.Fprintf(c.App.ErrWriter, "template written to %s\n", out)
		return nil
	},
}
