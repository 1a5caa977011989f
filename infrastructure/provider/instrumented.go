package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/helixml/stepsearch/internal/metrics"
)

// Instrumented records Prometheus metrics and debug logs around an Embedder.
type Instrumented struct {
	inner    Embedder
	provider string
	model    string
	logger   *slog.Logger
}

// NewInstrumented wraps inner. provider and model become metric labels.
func NewInstrumented(inner Embedder, provider, model string, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{inner: inner, provider: provider, model: model, logger: logger}
}

// Capacity forwards the wrapped embedder's batch limit, or 0 for none.
func (i *Instrumented) Capacity() int {
	if b, ok := i.inner.(Bounded); ok {
		return b.Capacity()
	}
	return 0
}

// Embed implements Embedder.
func (i *Instrumented) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	start := time.Now()
	resp, err := i.inner.Embed(ctx, req)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(i.provider, i.model, status).Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(i.provider, i.model).Observe(elapsed.Seconds())

	if err != nil {
		i.logger.Warn("embedding request failed",
			"provider", i.provider,
			"model", i.model,
			"texts", len(req.Texts()),
			"duration", elapsed,
			"error", err,
		)
		return resp, err
	}

	metrics.EmbeddingTextsTotal.WithLabelValues(i.provider, i.model).Add(float64(len(req.Texts())))
	if tokens := resp.Usage().TotalTokens(); tokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(i.provider, i.model).Add(float64(tokens))
	}
	i.logger.Debug("embedded texts",
		"provider", i.provider,
		"model", i.model,
		"texts", len(req.Texts()),
		"duration", elapsed,
	)
	return resp, nil
}

var _ Embedder = (*Instrumented)(nil)
