package main

import (
	"log/slog"

	"github.com/helixml/stepsearch/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants look up Gherkin step keywords while writing scenarios.
Logs go to stderr so stdout carries only the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := openClient(g)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			logger.Info("starting MCP server", slog.String("version", version))

			cfg := client.Config()
			server := mcp.NewServer(client.Search, client.Maintenance, mcp.Defaults{
				Model:   cfg.DefaultModel(),
				Project: cfg.DefaultProject(),
				Limit:   cfg.SearchLimit(),
			}, version, logger)
			return server.ServeStdio()
		},
	}
}
