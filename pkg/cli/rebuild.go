package cli

import (
	"context"
	"fmt"

	"github.com/Vamsi1807/AI-Call-Center/pkg/service/document"
	"github.com/Vamsi1807/AI-Call-Center/pkg/usecase/corpus"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func rebuildCommand() *cli.Command {
	var (
		cfg       config
		noSummary bool
		bqQuery   string
		bqName    string
		bqMax     int64
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-summary",
			Usage:       "Rebuild the corpus without regenerating the summary",
			Sources:     cli.EnvVars("CALLCENTER_NO_SUMMARY"),
			Destination: &noSummary,
		},
		&cli.StringFlag{
			Name:        "bigquery-query",
			Usage:       "Also ingest the result of this BigQuery query as a document",
			Sources:     cli.EnvVars("CALLCENTER_BIGQUERY_QUERY"),
			Destination: &bqQuery,
		},
		&cli.StringFlag{
			Name:        "bigquery-name",
			Usage:       "Document name of the BigQuery result",
			Value:       "bigquery",
			Sources:     cli.EnvVars("CALLCENTER_BIGQUERY_NAME"),
			Destination: &bqName,
		},
		&cli.IntFlag{
			Name:        "bigquery-max-bytes",
			Usage:       "Skip the BigQuery source when its dry run scans more bytes than this (0 disables)",
			Value:       1 << 30,
			Sources:     cli.EnvVars("CALLCENTER_BIGQUERY_MAX_BYTES"),
			Destination: &bqMax,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "rebuild",
		Usage: "Regenerate the corpus from all knowledge files, then summarize it",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer

			store, closeStore, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			sources, err := document.Dir(cfg.dataDir)
			if err != nil {
				return err
			}
			if bqQuery != "" {
				bq, err := cfg.newBigQuery(ctx)
				if err != nil {
					return err
				}
				sources = append(sources, document.NewQuerySource(bq, bqName, bqQuery, document.WithMaxBytes(bqMax)))
			}
			if len(sources) == 0 {
				fmt.Fprintf(w, "No knowledge files in %s\n", cfg.dataDir)
			}

			result := store.Rebuild(ctx, sources)
			for _, ingestErr := range result.IngestionErrors {
				fmt.Fprintf(w, "❌ %s\n", ingestErr.Error())
			}
			fmt.Fprintf(w, "✅ Corpus v%d rebuilt: %d documents, %d lines\n",
				result.Corpus.Version, len(result.Record.Documents), len(result.Corpus.Lines))
			if result.PersistError != nil {
				fmt.Fprintf(w, "⚠️  Corpus is in memory only: %v\n", result.PersistError)
			}

			if result.Corpus.Empty() {
				if store.Summary() == nil {
					return nil
				}
				if err := store.ClearSummary(ctx); err != nil {
					fmt.Fprintf(w, "⚠️  Summary cleared in memory only: %v\n", err)
				} else {
					fmt.Fprintf(w, "✅ Summary cleared, the corpus is empty\n")
				}
				return nil
			}
			if noSummary {
				if store.Summary() != nil {
					fmt.Fprintf(w, "⚠️  Summary was not regenerated and may describe an older corpus\n")
				}
				return nil
			}

			gw, err := cfg.newGateway(ctx)
			if err != nil {
				return err
			}

			summary, err := corpus.NewSummarizer(store, gw, corpus.WithAudience(cfg.audience)).Summarize(ctx, result.Corpus)
			if err != nil && summary == nil {
				return goerr.Wrap(err, "failed to summarize corpus")
			}
			if err != nil {
				fmt.Fprintf(w, "⚠️  Summary is in memory only: %v\n", err)
			}

			fmt.Fprintf(w, "✅ Summary updated\n\n%s\n", summary.Text)
			return nil
		},
	}
}
