package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/helixml/stepsearch/application/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func benchmarkCmd(g *globalFlags) *cobra.Command {
	var (
		models    string
		project   string
		nbResults int
		noBar     bool
	)

	cmd := &cobra.Command{
		Use:   "benchmark benchmark.tsv report.html",
		Short: "Compare models on a list of expected matches",
		Long: `Run every line of a benchmark file against one or more models and write an
HTML report.

The benchmark file is tab separated with a header row and the columns
type, keyword and expected_id. A line succeeds for a model when expected_id
is among its results; the report shows at which rank.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := service.ParseModelSpecs(models)
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open benchmark file: %w", err)
			}
			defer func() { _ = in.Close() }()
			cases, err := service.ReadBenchmarkCases(in)
			if err != nil {
				return err
			}

			client, logger, err := openClient(g)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			cfg := client.Config()
			project = orDefault(project, cfg.DefaultProject())
			if !cmd.Flags().Changed("nb-results") {
				nbResults = cfg.SearchLimit()
			}

			opts := []service.BenchmarkOption{service.WithBenchmarkLogger(logger)}
			if !noBar {
				opts = append(opts, service.WithProgress(progress(len(cases))))
			}

			result, err := service.NewBenchmark(client.Search, opts...).Run(cmd.Context(), specs, project, nbResults, cases)
			if err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create report: %w", err)
			}
			if err := writeReport(out, result); err != nil {
				return err
			}

			for _, m := range result.Models {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d\n", m, result.Score(m), len(result.Rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&models, "models", "", "Comma separated models, as name or name@Host")
	cmd.Flags().StringVar(&project, "project", "", "Project name (default: Common)")
	cmd.Flags().IntVar(&nbResults, "nb-results", 3, "Number of matches per query")
	cmd.Flags().BoolVar(&noBar, "no-progress", false, "Do not draw a progress bar")
	_ = cmd.MarkFlagRequired("models")

	return cmd
}

// writeReport renders the report into out and closes it. A failed close
// is reported since it can lose buffered HTML.
func writeReport(out io.WriteCloser, result service.BenchmarkResult) error {
	if err := service.WriteReport(out, result); err != nil {
		_ = out.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

// progress returns a callback drawing a progress bar on stderr.
func progress(total int) func(done, total int) {
	var mu sync.Mutex
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Benchmarking[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	return func(done, _ int) {
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Set(done)
	}
}
