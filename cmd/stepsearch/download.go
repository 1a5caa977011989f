package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/helixml/stepsearch/infrastructure/provider"
	"github.com/knights-analytics/hugot"
	"github.com/spf13/cobra"
)

func downloadModelCmd(g *globalFlags) *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:   "download-model [model]",
		Short: "Download a local embedding model",
		Long: `Download a sentence-transformers ONNX model from the Hugging Face hub into
the model directory, where local ingestion and search look for it.

The model defaults to all-MiniLM-L6-v2. Models without an owner are fetched
from the sentence-transformers organisation unless --repo is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}

			model := cfg.DefaultModel()
			if len(args) == 1 {
				model = args[0]
			}
			if repo == "" {
				repo = model
				if !strings.Contains(repo, "/") {
					repo = "sentence-transformers/" + repo
				}
			}

			dest := filepath.Join(cfg.ModelDir(), provider.ModelDirName(model))
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Downloading %s to %s...\n", repo, dest)

			opts := hugot.NewDownloadOptions()
			opts.OnnxFilePath = "onnx/model.onnx"
			modelPath, err := hugot.DownloadModel(repo, dest, opts)
			if err != nil {
				return fmt.Errorf("download model: %w", err)
			}

			_, _ = fmt.Fprintf(out, "Model downloaded to %s\n", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Hugging Face repository (default: sentence-transformers/<model>)")

	return cmd
}
