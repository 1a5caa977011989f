package main

import (
	"fmt"
	"io"
	"os"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/infrastructure/gherkin"
	"github.com/helixml/stepsearch/internal/log"
	"github.com/spf13/cobra"
)

func extractCmd(g *globalFlags) *cobra.Command {
	var (
		output    string
		delimiter string
	)

	cmd := &cobra.Command{
		Use:   "extract [files|globs...]",
		Short: "Extract step keywords from Gherkin feature files",
		Long: `Extract step keywords from Gherkin feature files into a keywords JSON file.

Arguments are feature files or doublestar globs such as 'features/**/*.feature'.
Steps that only differ by quoted literals, numbers or <parameters> are merged,
keeping the longest text. Every keyword gets a fresh id and an empty
description, ready to be filled in before ingestion.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			logger := log.Configure(cfg)

			paths, err := gherkin.ExpandPaths(args)
			if err != nil {
				return err
			}
			extractor, err := gherkin.NewExtractor(
				gherkin.WithStringDelimiter(delimiter),
				gherkin.WithLogger(logger),
			)
			if err != nil {
				return err
			}
			entries, err := extractor.Extract(paths)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			if err := keyword.NewFile(entries).Write(w); err != nil {
				return fmt.Errorf("write keywords: %w", err)
			}

			logger.Info("keywords extracted", "files", len(paths), "keywords", len(entries), "output", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&delimiter, "string-delimiter", gherkin.DoubleQuote, `String literal delimiter: '"' or "'"`)

	return cmd
}
