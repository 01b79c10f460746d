package cli

import (
	"context"

	"github.com/Vamsi1807/AI-Call-Center/pkg/service/mcp"
	"github.com/Vamsi1807/AI-Call-Center/pkg/usecase/call"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the corpus, summary and grounded answers as MCP tools on stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			store, closeStore, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			gw, err := cfg.newGateway(ctx)
			if err != nil {
				return err
			}

			return mcp.New(store, call.NewManager(store, gw), mcp.WithVersion(version)).Serve(ctx)
		},
	}
}
