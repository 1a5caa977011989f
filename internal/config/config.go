// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultLogLevel       = "INFO"
	DefaultSearchLimit    = 3
	DefaultModel          = "all-MiniLM-L6-v2"
	DefaultProject        = "Common"
	DefaultQdrantHost     = "localhost"
	DefaultQdrantPort     = 6334
	DefaultModelSubdir    = "models"
	DefaultDatabaseFile   = "stepsearch.db"
	DefaultRequestTimeout = 5 * time.Minute
	defaultDataDirName    = ".stepsearch"
	defaultSQLitePrefix   = "sqlite:///"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// VectorStore names the backend holding the partitions.
type VectorStore string

// VectorStore values.
const (
	VectorStoreSQLite   VectorStore = "sqlite"
	VectorStorePgvector VectorStore = "pgvector"
	VectorStoreQdrant   VectorStore = "qdrant"
)

// ParseVectorStore parses a backend name, case-insensitively.
func ParseVectorStore(s string) (VectorStore, error) {
	switch v := VectorStore(strings.ToLower(strings.TrimSpace(s))); v {
	case VectorStoreSQLite, VectorStorePgvector, VectorStoreQdrant:
		return v, nil
	}
	return "", fmt.Errorf("unknown vector store %q: use sqlite, pgvector or qdrant", s)
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host           string
	port           int
	dataDir        string
	dbURL          string
	logLevel       string
	logFormat      LogFormat
	vectorStore    VectorStore
	qdrantHost     string
	qdrantPort     int
	modelDir       string
	httpCacheDir   string
	searchLimit    int
	defaultModel   string
	defaultProject string
	apiKeys        []string
	requestTimeout time.Duration
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirName
	}
	return filepath.Join(home, defaultDataDirName)
}

func sqliteURL(dataDir string) string {
	return defaultSQLitePrefix + filepath.Join(dataDir, DefaultDatabaseFile)
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:           DefaultHost,
		port:           DefaultPort,
		dataDir:        dataDir,
		dbURL:          sqliteURL(dataDir),
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		vectorStore:    VectorStoreSQLite,
		qdrantHost:     DefaultQdrantHost,
		qdrantPort:     DefaultQdrantPort,
		searchLimit:    DefaultSearchLimit,
		defaultModel:   DefaultModel,
		defaultProject: DefaultProject,
		requestTimeout: DefaultRequestTimeout,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// VectorStore returns the vector backend.
func (c AppConfig) VectorStore() VectorStore { return c.vectorStore }

// QdrantHost returns the Qdrant gRPC host.
func (c AppConfig) QdrantHost() string { return c.qdrantHost }

// QdrantPort returns the Qdrant gRPC port.
func (c AppConfig) QdrantPort() int { return c.qdrantPort }

// ModelDir returns the directory holding local embedding models.
// It defaults to the models subdirectory of the data directory.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return filepath.Join(c.dataDir, DefaultModelSubdir)
}

// HTTPCacheDir returns the directory caching remote embedding responses,
// or empty when caching is off.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// SearchLimit returns the default number of search results.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// DefaultModel returns the model spec used when none is given.
func (c AppConfig) DefaultModel() string { return c.defaultModel }

// DefaultProject returns the project used when none is given.
func (c AppConfig) DefaultProject() string { return c.defaultProject }

// APIKeys returns the keys accepted on mutating API requests. Empty means
// the API is open.
func (c AppConfig) APIKeys() []string { return append([]string(nil), c.apiKeys...) }

// RequestTimeout bounds a single /api/v1 request, ingestion included.
func (c AppConfig) RequestTimeout() time.Duration { return c.requestTimeout }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		// Move the default database along with the data directory.
		if c.dbURL == "" || c.dbURL == sqliteURL(c.dataDir) {
			c.dbURL = sqliteURL(dir)
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithVectorStore sets the vector backend.
func WithVectorStore(v VectorStore) AppConfigOption {
	return func(c *AppConfig) { c.vectorStore = v }
}

// WithQdrant sets the Qdrant gRPC address.
func WithQdrant(host string, port int) AppConfigOption {
	return func(c *AppConfig) {
		c.qdrantHost = host
		c.qdrantPort = port
	}
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithHTTPCacheDir sets the HTTP response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithSearchLimit sets the default number of search results.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithDefaultModel sets the default model spec.
func WithDefaultModel(model string) AppConfigOption {
	return func(c *AppConfig) { c.defaultModel = model }
}

// WithDefaultProject sets the default project.
func WithDefaultProject(project string) AppConfigOption {
	return func(c *AppConfig) { c.defaultProject = project }
}

// WithAPIKeys sets the accepted API keys. Blank keys are dropped.
func WithAPIKeys(keys ...string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = nil
		for _, k := range keys {
			if k = strings.TrimSpace(k); k != "" {
				c.apiKeys = append(c.apiKeys, k)
			}
		}
	}
}

// WithRequestTimeout sets the API request timeout. Non-positive values are ignored.
func WithRequestTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Database credentials are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("vector_store", string(c.vectorStore)),
		slog.String("model_dir", c.ModelDir()),
		slog.String("log_level", c.logLevel),
		slog.String("default_model", c.defaultModel),
		slog.String("default_project", c.defaultProject),
		slog.Bool("http_cache", c.httpCacheDir != ""),
		slog.Int("api_keys", len(c.apiKeys)),
		slog.Duration("request_timeout", c.requestTimeout),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}
