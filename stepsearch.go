// Package stepsearch indexes Gherkin step keywords and their descriptions as
// embedding vectors and finds the closest ones to a free-text sentence.
//
// Basic usage:
//
//	client, err := stepsearch.New(
//	    stepsearch.WithConfig(cfg),
//	    stepsearch.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Index keywords for a project
//	err = client.Ingestion.Ingest(ctx, "all-MiniLM-L6-v2", "", "Common", entries)
//
//	// Look up the closest Action steps
//	results, err := client.Search.Search(ctx, "all-MiniLM-L6-v2", "", "Common",
//	    keyword.CategoryAction, "I sign in", 3)
package stepsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/helixml/stepsearch/application/service"
	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/infrastructure/persistence"
	"github.com/helixml/stepsearch/infrastructure/provider"
	infrasearch "github.com/helixml/stepsearch/infrastructure/search"
	"github.com/helixml/stepsearch/internal/config"
	"github.com/helixml/stepsearch/internal/database"
)

// Client is the main entry point for the stepsearch library.
//
// Access operations via struct fields:
//
//	client.Ingestion.Ingest(ctx, model, host, project, entries)
//	client.Search.Search(ctx, model, host, project, category, text, topK)
//	client.Maintenance.Dump(ctx)
type Client struct {
	Search      *service.Search
	Ingestion   *service.Ingestion
	Maintenance *service.Maintenance

	db      database.Database
	store   search.Store
	config  config.AppConfig
	closers []io.Closer

	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	appConfig := cfg.appConfig
	if appConfig.DBURL() == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := appConfig.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabaseWithLogger(ctx, appConfig.DBURL(), logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	store := cfg.store
	closers := cfg.closers
	if store == nil {
		var closer io.Closer
		store, closer, err = buildStore(appConfig, db, logger)
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("vector store: %w", err), errClose)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	selector := cfg.selector
	if selector == nil {
		selector = provider.NewSelector(
			provider.WithModelDir(appConfig.ModelDir()),
			provider.WithHTTPClient(provider.NewCachingClient(appConfig.HTTPCacheDir())),
			provider.WithLogger(logger),
		)
	}

	registry := persistence.NewModelStore(db)

	client := &Client{
		Search:      service.NewSearch(registry, store, selector, logger),
		Ingestion:   service.NewIngestion(registry, store, selector, logger),
		Maintenance: service.NewMaintenance(registry, store, logger),
		db:          db,
		store:       store,
		config:      appConfig,
		closers:     closers,
		logger:      logger,
	}

	logger.Info("stepsearch client ready",
		slog.String("vector_store", string(appConfig.VectorStore())),
		slog.String("data_dir", appConfig.DataDir()),
	)
	return client, nil
}

// buildStore creates the vector store named by the configuration.
func buildStore(cfg config.AppConfig, db database.Database, logger *slog.Logger) (search.Store, io.Closer, error) {
	switch cfg.VectorStore() {
	case config.VectorStoreSQLite:
		if !db.IsSQLite() {
			return nil, nil, fmt.Errorf("%w: the sqlite vector store needs a sqlite database", ErrStoreMismatch)
		}
		return infrasearch.NewSQLiteStore(db, logger), nil, nil
	case config.VectorStorePgvector:
		if !db.IsPostgres() {
			return nil, nil, fmt.Errorf("%w: the pgvector vector store needs a postgres database", ErrStoreMismatch)
		}
		return infrasearch.NewPgvectorStore(db, logger), nil, nil
	case config.VectorStoreQdrant:
		store, err := infrasearch.NewQdrantStore(cfg.QdrantHost(), cfg.QdrantPort(), logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrStoreMismatch, cfg.VectorStore())
	}
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("stepsearch client closed")
	return nil
}

// Config returns the configuration the client was built from.
func (c *Client) Config() config.AppConfig {
	return c.config
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
