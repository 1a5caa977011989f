package main

import (
	"github.com/helixml/stepsearch/application/service"
	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/spf13/cobra"
)

func queryCmd(g *globalFlags) *cobra.Command {
	var (
		model       string
		project     string
		keywordType string
		nbResults   int
	)

	cmd := &cobra.Command{
		Use:   "query [flags] text",
		Short: "Find the keywords closest to a sentence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := keyword.ParseCategory(keywordType)
			if err != nil {
				return err
			}

			client, logger, err := openClient(g)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			cfg := client.Config()
			spec, err := service.ParseModelSpec(orDefault(model, cfg.DefaultModel()))
			if err != nil {
				return err
			}
			project = orDefault(project, cfg.DefaultProject())
			if !cmd.Flags().Changed("nb-results") {
				nbResults = cfg.SearchLimit()
			}

			results, err := client.Search.Search(cmd.Context(), spec.Model, spec.Host, project, category, args[0], nbResults)
			if err != nil {
				return err
			}
			return writeQueryResults(cmd.OutOrStdout(), args[0], project, category, results)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Embedding model, as name or name@Host (default: all-MiniLM-L6-v2)")
	cmd.Flags().StringVar(&project, "project", "", "Project name (default: Common)")
	cmd.Flags().StringVar(&keywordType, "keyword-type", "", "Keyword category: Context, Action or Outcome")
	cmd.Flags().IntVar(&nbResults, "nb-results", 3, "Number of matches to return")
	_ = cmd.MarkFlagRequired("keyword-type")

	return cmd
}
