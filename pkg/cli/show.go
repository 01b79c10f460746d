package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Print the corpus or the summary",
		ArgsUsage: "corpus|summary",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			target := c.Args().First()
			if target != "corpus" && target != "summary" {
				return goerr.New("argument must be 'corpus' or 'summary'", goerr.V("arg", target))
			}

			store, closeStore, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			w := c.Root().Writer
			switch target {
			case "corpus":
				corpus := store.Corpus()
				if corpus == nil {
					fmt.Fprintf(w, "Corpus not generated yet. Run 'rebuild' first.\n")
					return nil
				}
				fmt.Fprintf(w, "%s\n", corpus.Text())

			case "summary":
				summary := store.Summary()
				if summary == nil {
					fmt.Fprintf(w, "Summary not generated yet. Run 'rebuild' first.\n")
					return nil
				}
				fmt.Fprintf(w, "%s\n", summary.Text)
			}
			return nil
		},
	}
}
