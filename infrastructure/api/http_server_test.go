package api

import (
	"context"
	"testing"
	"time"

	"github.com/helixml/stepsearch"
	"github.com/helixml/stepsearch/internal/config"
	"github.com/helixml/stepsearch/internal/testembed"
)

func newServerWithConfig(t *testing.T, opts ...config.AppConfigOption) *APIServer {
	t.Helper()
	opts = append([]config.AppConfigOption{config.WithDataDir(t.TempDir())}, opts...)
	client, err := stepsearch.New(
		stepsearch.WithConfig(config.NewAppConfigWithOptions(opts...)),
		stepsearch.WithEmbedderSelector(testembed.Selector{Embedder: testembed.New()}),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewAPIServer(client, "test")
}

func TestNewHTTPServer_WriteTimeoutFollowsRequestTimeout(t *testing.T) {
	a := newServerWithConfig(t, config.WithRequestTimeout(90*time.Second))

	srv := a.newHTTPServer("127.0.0.1:9999")
	if srv.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.WriteTimeout != 100*time.Second {
		t.Errorf("WriteTimeout = %v, want %v", srv.WriteTimeout, 100*time.Second)
	}
	if srv.Handler != a.Handler() {
		t.Error("http server does not serve the API routes")
	}
}

func TestAPIServer_ShutdownBeforeStart(t *testing.T) {
	a := newServerWithConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}
