// Package main is the entry point for the stepsearch CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/helixml/stepsearch"
	"github.com/helixml/stepsearch/internal/config"
	"github.com/helixml/stepsearch/internal/log"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	envFile     string
	dataDir     string
	dbURL       string
	vectorStore string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "stepsearch",
		Short: "Semantic search over Gherkin step keywords",
		Long: `stepsearch extracts step keywords from Gherkin feature files, indexes them
as embedding vectors per model, project and category, and finds the keywords
closest to a free-text sentence.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                 Server host to bind to (default: 0.0.0.0)
  PORT                 Server port to listen on (default: 8080)
  DATA_DIR             Data directory (default: ~/.stepsearch)
  DB_URL               Database URL (default: sqlite:///{data_dir}/stepsearch.db)
  LOG_LEVEL            Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT           Log format: pretty, json (default: pretty)
  VECTOR_STORE         Vector store: sqlite, pgvector, qdrant (default: sqlite)
  QDRANT_HOST          Qdrant host (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  MODEL_DIR            Local model directory (default: {data_dir}/models)
  HTTP_CACHE_DIR       Cache remote embedding responses on disk
  SEARCH_LIMIT         Default number of results (default: 3)
  DEFAULT_MODEL        Default embedding model (default: all-MiniLM-L6-v2)
  DEFAULT_PROJECT      Default project (default: Common)

  COHERE_API_KEY, TOGETHER_API_KEY, MISTRAL_API_KEY, HUGGINGFACE_API_KEY
                       API keys for the remote embedding hosts`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	flags.StringVar(&g.dataDir, "data-dir", "", "Data directory")
	flags.StringVar(&g.dbURL, "db-url", "", "Database URL")
	flags.StringVar(&g.vectorStore, "vector-store", "", "Vector store: sqlite, pgvector, qdrant")

	cmd.AddCommand(extractCmd(g))
	cmd.AddCommand(ingestCmd(g))
	cmd.AddCommand(queryCmd(g))
	cmd.AddCommand(benchmarkCmd(g))
	cmd.AddCommand(dumpCmd(g))
	cmd.AddCommand(resetCmd(g))
	cmd.AddCommand(downloadModelCmd(g))
	cmd.AddCommand(serveCmd(g))
	cmd.AddCommand(stdioCmd(g))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables
// and applies the global flag overrides.
func loadConfig(g *globalFlags) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(g.envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}

	var opts []config.AppConfigOption
	if g.dataDir != "" {
		opts = append(opts, config.WithDataDir(g.dataDir))
	}
	if g.dbURL != "" {
		opts = append(opts, config.WithDBURL(g.dbURL))
	}
	if g.vectorStore != "" {
		v, err := config.ParseVectorStore(g.vectorStore)
		if err != nil {
			return config.AppConfig{}, err
		}
		opts = append(opts, config.WithVectorStore(v))
	}
	return cfg.Apply(opts...), nil
}

// openClient loads the configuration, sets up logging and opens a client.
// The caller must close the client.
func openClient(g *globalFlags) (*stepsearch.Client, *slog.Logger, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	logger := log.Configure(cfg)

	client, err := stepsearch.New(
		stepsearch.WithConfig(cfg),
		stepsearch.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create stepsearch client: %w", err)
	}
	return client, logger, nil
}

// closeClient closes client and logs any failure.
func closeClient(client *stepsearch.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close stepsearch client", slog.Any("error", err))
	}
}
