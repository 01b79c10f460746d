package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Sources:     cli.EnvVars("CALLCENTER_HISTORY_OFFSET"),
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of rebuilds to list",
			Value:       20,
			Sources:     cli.EnvVars("CALLCENTER_HISTORY_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List corpus rebuilds recorded in the catalog",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if cfg.project == "" {
				return goerr.New("project is required to read the rebuild catalog")
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			records, err := repo.ListRebuilds(ctx, int(offset), int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list rebuilds")
			}

			if len(records) == 0 {
				fmt.Fprintf(c.Root().Writer, "No rebuilds found\n")
				return nil
			}

			for _, r := range records {
				summary := "-"
				if r.SummaryUpdated {
					summary = "summary"
				}
				fmt.Fprintf(c.Root().Writer, "%s\tv%d\t%s\t%d lines\t%d errors\t%s\t%s\n",
					r.ID,
					r.Version,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.LineCount,
					len(r.IngestionErrors),
					summary,
					strings.Join(r.Documents, ","),
				)
			}

			return nil
		},
	}
}
