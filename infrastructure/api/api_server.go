// Package api serves the stepsearch HTTP interface: the JSON search and
// ingest endpoints, the index viewer, Prometheus metrics and MCP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/helixml/stepsearch"
	apimiddleware "github.com/helixml/stepsearch/infrastructure/api/middleware"
	v1 "github.com/helixml/stepsearch/infrastructure/api/v1"
	mcpinternal "github.com/helixml/stepsearch/internal/mcp"
	"github.com/helixml/stepsearch/internal/metrics"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// writeGrace leaves room to send the timeout response after a request's
// deadline has passed.
const writeGrace = 10 * time.Second

// APIServer provides an HTTP API backed by a stepsearch Client.
type APIServer struct {
	client  *stepsearch.Client
	version string
	logger  *slog.Logger
	router  chi.Router

	mu         sync.Mutex
	httpServer *http.Server
}

// NewAPIServer creates a new APIServer wired to the given Client.
func NewAPIServer(client *stepsearch.Client, version string) *APIServer {
	a := &APIServer{
		client:  client,
		version: version,
		logger:  client.Logger(),
	}
	a.router = a.routes()
	return a
}

func (a *APIServer) routes() chi.Router {
	c := a.client
	cfg := c.Config()

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", apimiddleware.APIKeyHeader, chimiddleware.RequestIDHeader},
		MaxAge:         300,
	}))
	router.Use(apimiddleware.Logging(a.logger))
	router.Use(metrics.Middleware)

	viewer := NewViewer(c.Maintenance, a.logger)
	router.Get("/", viewer.Index)
	router.Get("/database", viewer.Database)
	router.Get("/health", a.health)
	router.Handle("/metrics", promhttp.Handler())

	auth := apimiddleware.NewAuthConfigWithKeys(cfg.APIKeys())
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout()))

		// Search is a read-only POST.
		r.Mount("/search", v1.NewSearchRouter(c).Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtect(auth, a.logger))
			r.Mount("/ingest", v1.NewIngestRouter(c).Routes())
		})
	})

	// MCP keeps its own session state in response headers, so it stays
	// outside the Timeout middleware.
	mcpSrv := mcpinternal.NewServer(c.Search, c.Maintenance, mcpinternal.Defaults{
		Model:   cfg.DefaultModel(),
		Project: cfg.DefaultProject(),
		Limit:   cfg.SearchLimit(),
	}, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))

	return router
}

func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *APIServer) newHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      a.client.Config().RequestTimeout() + writeGrace,
		IdleTimeout:       120 * time.Second,
	}
}

// ListenAndServe listens on addr and blocks until the server stops.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := a.newHTTPServer(addr)
	a.mu.Lock()
	a.httpServer = srv
	a.mu.Unlock()

	a.logger.Info("starting HTTP server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server. It is a no-op before
// ListenAndServe.
func (a *APIServer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.mu.Unlock()
	if srv == nil {
		return nil
	}

	a.logger.Info("shutting down HTTP server")
	return srv.Shutdown(ctx)
}

// Handler returns the routes as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	return a.router
}
