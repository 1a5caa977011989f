package main

import (
	"fmt"
	"os"

	"github.com/helixml/stepsearch/application/service"
	"github.com/spf13/cobra"
)

func ingestCmd(g *globalFlags) *cobra.Command {
	var (
		model   string
		project string
	)

	cmd := &cobra.Command{
		Use:   "ingest keywords.json",
		Short: "Index a keywords file",
		Long: `Index a keywords file produced by extract.

Each keyword, and its description when present, is embedded with the chosen
model and written to the partition of its project and category. Re-ingesting
the same ids overwrites them.

The model is given as 'name' for a local model or 'name@Host' for a remote
one, where Host is Cohere, Together, Mistral or HuggingFace.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := openClient(g)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			spec, err := service.ParseModelSpec(orDefault(model, client.Config().DefaultModel()))
			if err != nil {
				return err
			}
			project = orDefault(project, client.Config().DefaultProject())

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open keywords file: %w", err)
			}
			defer func() { _ = f.Close() }()

			n, err := client.Ingestion.IngestFile(cmd.Context(), spec.Model, spec.Host, project, f)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d keywords into %s project with %s\n", n, project, spec)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Embedding model, as name or name@Host (default: all-MiniLM-L6-v2)")
	cmd.Flags().StringVar(&project, "project", "", "Project name (default: Common)")

	return cmd
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
