package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.stepsearch
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/stepsearch.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// VectorStore selects the vector backend: sqlite, pgvector or qdrant.
	// Env: VECTOR_STORE (default: sqlite)
	VectorStore string `envconfig:"VECTOR_STORE" default:"sqlite"`

	// Qdrant configures the Qdrant connection.
	Qdrant QdrantEnv `envconfig:"QDRANT"`

	// ModelDir holds local embedding models.
	// Env: MODEL_DIR
	// Default: {data_dir}/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// HTTPCacheDir is the directory for caching HTTP responses to disk.
	// When set, remote embedding responses are cached to avoid repeated API calls.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// SearchLimit is the default number of search results.
	// Env: SEARCH_LIMIT (default: 3)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"3"`

	// DefaultModel is the model spec used when none is given.
	// Env: DEFAULT_MODEL (default: all-MiniLM-L6-v2)
	DefaultModel string `envconfig:"DEFAULT_MODEL" default:"all-MiniLM-L6-v2"`

	// DefaultProject is the project used when none is given.
	// Env: DEFAULT_PROJECT (default: Common)
	DefaultProject string `envconfig:"DEFAULT_PROJECT" default:"Common"`

	// APIKeys is a comma-separated list of keys required on mutating API
	// requests. Unset leaves the API open.
	// Env: API_KEYS
	APIKeys []string `envconfig:"API_KEYS"`

	// RequestTimeout bounds each /api/v1 request.
	// Env: REQUEST_TIMEOUT (default: 5m)
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5m"`
}

// QdrantEnv holds environment configuration for Qdrant.
type QdrantEnv struct {
	// Host is the gRPC host.
	// Env: QDRANT_HOST (default: localhost)
	Host string `envconfig:"HOST" default:"localhost"`

	// Port is the gRPC port.
	// Env: QDRANT_PORT (default: 6334)
	Port int `envconfig:"PORT" default:"6334"`
}

// LoadFromEnv loads configuration from environment variables without a prefix.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "STEPSEARCH" reads STEPSEARCH_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig. An unknown vector store is an error.
func (e EnvConfig) ToAppConfig() (AppConfig, error) {
	opts := []AppConfigOption{
		WithQdrant(e.Qdrant.Host, e.Qdrant.Port),
		WithSearchLimit(e.SearchLimit),
		WithRequestTimeout(e.RequestTimeout),
	}
	if len(e.APIKeys) > 0 {
		opts = append(opts, WithAPIKeys(e.APIKeys...))
	}
	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.VectorStore != "" {
		store, err := ParseVectorStore(e.VectorStore)
		if err != nil {
			return AppConfig{}, err
		}
		opts = append(opts, WithVectorStore(store))
	}
	if e.ModelDir != "" {
		opts = append(opts, WithModelDir(e.ModelDir))
	}
	if e.HTTPCacheDir != "" {
		opts = append(opts, WithHTTPCacheDir(e.HTTPCacheDir))
	}
	if e.DefaultModel != "" {
		opts = append(opts, WithDefaultModel(e.DefaultModel))
	}
	if e.DefaultProject != "" {
		opts = append(opts, WithDefaultProject(e.DefaultProject))
	}
	return NewAppConfigWithOptions(opts...), nil
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
