package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, DefaultHost, cfg.Host())
	assert.Equal(t, DefaultPort, cfg.Port())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DefaultDataDir(), cfg.DataDir())
	assert.Equal(t, "sqlite:///"+filepath.Join(DefaultDataDir(), "stepsearch.db"), cfg.DBURL())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
	assert.Equal(t, VectorStoreSQLite, cfg.VectorStore())
	assert.Equal(t, filepath.Join(DefaultDataDir(), "models"), cfg.ModelDir())
	assert.Equal(t, 3, cfg.SearchLimit())
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.DefaultModel())
	assert.Equal(t, "Common", cfg.DefaultProject())
	assert.Empty(t, cfg.HTTPCacheDir())
	assert.Empty(t, cfg.APIKeys())
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout())
}

func TestWithAPIKeys_DropsBlanks(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithAPIKeys("", " k1 ", "k2"), WithRequestTimeout(0))
	assert.Equal(t, []string{"k1", "k2"}, cfg.APIKeys())
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout())
}

func TestWithDataDir_MovesDefaultDatabase(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDataDir("/srv/steps"))
	assert.Equal(t, "sqlite:///"+filepath.Join("/srv/steps", "stepsearch.db"), cfg.DBURL())
	assert.Equal(t, filepath.Join("/srv/steps", "models"), cfg.ModelDir())

	custom := NewAppConfigWithOptions(
		WithDBURL("postgres://u:p@db/steps"),
		WithDataDir("/srv/steps"),
	)
	assert.Equal(t, "postgres://u:p@db/steps", custom.DBURL())
}

func TestApply_DoesNotMutateReceiver(t *testing.T) {
	base := NewAppConfig()
	changed := base.Apply(WithPort(9000), WithSearchLimit(0), WithModelDir("/models"))

	assert.Equal(t, DefaultPort, base.Port())
	assert.Equal(t, 9000, changed.Port())
	assert.Equal(t, DefaultSearchLimit, changed.SearchLimit(), "non-positive limits are ignored")
	assert.Equal(t, "/models", changed.ModelDir())
}

func TestParseVectorStore(t *testing.T) {
	v, err := ParseVectorStore(" Qdrant ")
	require.NoError(t, err)
	assert.Equal(t, VectorStoreQdrant, v)

	_, err = ParseVectorStore("chroma")
	require.Error(t, err)
}

func TestLogAttrs_MasksPostgres(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithDBURL("postgres://user:secret@db:5432/steps"))
	for _, a := range cfg.LogAttrs() {
		assert.NotContains(t, a.Value.String(), "secret")
	}
}
