package cli

import (
	"context"

	"github.com/m-mizutani/sidekick/pkg/model"
	"github.com/m-mizutani/sidekick/pkg/service/mcp"
	"github.com/m-mizutani/sidekick/pkg/tool/crm"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg     config
		salesID int64
		boardID int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "sales-id",
			Usage:       "Sales user the records are created for",
			Sources:     cli.EnvVars("SIDEKICK_SALES_ID"),
			Destination: &salesID,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "board-id",
			Usage:       "Pipeline to create deals in (default pipeline if omitted)",
			Sources:     cli.EnvVars("SIDEKICK_BOARD_ID"),
			Destination: &boardID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, policyFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the CRM tools to an MCP client over stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			registry, err := cfg.newRegistry(ctx, repo)
			if err != nil {
				return err
			}

			return mcp.New(registry, model.SalesID(salesID), model.PipelineID(boardID), crm.CatalogVersion).Run(ctx)
		},
	}
}
