package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixml/stepsearch"
	"github.com/helixml/stepsearch/infrastructure/api"
	"github.com/helixml/stepsearch/internal/config"
	"github.com/helixml/stepsearch/internal/log"
	"github.com/spf13/cobra"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Routes:
  GET  /                 HTML view of the index
  GET  /health           Health check
  GET  /database         Every partition and its documents as JSON
  GET  /metrics          Prometheus metrics
  POST /api/v1/search    Find the keywords closest to a sentence
  POST /api/v1/ingest    Index keywords
  /mcp                   MCP over streamable HTTP

When API_KEYS is set, ingest requests need a matching X-API-KEY header.
REQUEST_TIMEOUT bounds each /api/v1 request (default 5m).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(g, host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(g *globalFlags, host string, port int) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.Configure(cfg)
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting stepsearch", attrs...)

	client, err := stepsearch.New(
		stepsearch.WithConfig(cfg),
		stepsearch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create stepsearch client: %w", err)
	}
	defer closeClient(client, logger)

	apiServer := api.NewAPIServer(client, version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
