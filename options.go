package stepsearch

import (
	"io"
	"log/slog"

	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	appConfig config.AppConfig
	logger    *slog.Logger
	store     search.Store
	selector  search.EmbedderSelector
	closers   []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{appConfig: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig replaces the application configuration.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.appConfig = cfg
	}
}

// WithDataDir sets the data directory. The default SQLite database moves with it.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.appConfig = c.appConfig.Apply(config.WithDataDir(dir))
	}
}

// WithDBURL sets the database connection URL.
func WithDBURL(url string) Option {
	return func(c *clientConfig) {
		c.appConfig = c.appConfig.Apply(config.WithDBURL(url))
	}
}

// WithVectorStore selects the vector store backend.
func WithVectorStore(v config.VectorStore) Option {
	return func(c *clientConfig) {
		c.appConfig = c.appConfig.Apply(config.WithVectorStore(v))
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithStore sets a custom vector store, bypassing the configured backend.
func WithStore(s search.Store) Option {
	return func(c *clientConfig) {
		c.store = s
	}
}

// WithEmbedderSelector sets how (model, host) pairs map to embedders.
// By default local models load from the model directory and remote hosts
// read their API key from <HOST>_API_KEY.
func WithEmbedderSelector(s search.EmbedderSelector) Option {
	return func(c *clientConfig) {
		c.selector = s
	}
}

// WithCloser registers a resource to close with the client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
