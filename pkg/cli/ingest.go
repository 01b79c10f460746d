package cli

import (
	"context"
	"fmt"

	"github.com/Vamsi1807/AI-Call-Center/pkg/service/document"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Copy knowledge files (.xlsx, .yaml) into the data directory",
		ArgsUsage: "<file>...",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one file is required")
			}

			imported, err := document.Import(cfg.dataDir, paths)
			for _, path := range imported {
				fmt.Fprintf(c.Root().Writer, "✅ Uploaded %s\n", path)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to ingest files")
			}

			fmt.Fprintf(c.Root().Writer, "Run 'rebuild' to regenerate the corpus.\n")
			return nil
		},
	}
}

func sheetsCommand() *cli.Command {
	return &cli.Command{
		Name:      "sheets",
		Usage:     "List the sheets and row counts of a knowledge file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one file is required")
			}

			doc, err := document.FileSource(c.Args().First()).Open(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to read document")
			}

			fmt.Fprintf(c.Root().Writer, "📁 %s\n", doc.Name)
			for _, sheet := range doc.Sheets {
				columns := 0
				if len(sheet.Rows) > 0 {
					columns = len(sheet.Rows[0])
				}
				fmt.Fprintf(c.Root().Writer, "  📄 %s\t%d rows\t%d columns\n", sheet.Name, len(sheet.Rows), columns)
			}
			return nil
		},
	}
}
