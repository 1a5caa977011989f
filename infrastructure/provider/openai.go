package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Base URLs of the OpenAI-compatible embedding APIs.
const (
	TogetherBaseURL = "https://api.together.xyz/v1"
	MistralBaseURL  = "https://api.mistral.ai/v1"
)

const defaultOpenAIBatchSize = 32

// errEmbeddingCountMismatch indicates the API returned fewer vectors than
// texts. Retried because rate limiting behind a 200 can produce partial bodies.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// OpenAIProvider embeds text through any OpenAI-compatible /embeddings API.
type OpenAIProvider struct {
	name          string
	client        *openai.Client
	model         string
	apiKey        string
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIConfig holds configuration for an OpenAI-compatible provider.
type OpenAIConfig struct {
	Name          string
	APIKey        string
	BaseURL       string
	Model         string
	HTTPClient    *http.Client
	BatchSize     int
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// NewOpenAIProvider creates a provider from configuration.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	p := &OpenAIProvider{
		name:          cfg.Name,
		client:        openai.NewClientWithConfig(config),
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		batchSize:     cfg.BatchSize,
		maxRetries:    cfg.MaxRetries,
		initialDelay:  cfg.InitialDelay,
		backoffFactor: cfg.BackoffFactor,
	}
	if p.name == "" {
		p.name = "openai"
	}
	if p.batchSize <= 0 {
		p.batchSize = defaultOpenAIBatchSize
	}
	if p.maxRetries == 0 {
		p.maxRetries = 3
	}
	if p.initialDelay == 0 {
		p.initialDelay = time.Second
	}
	if p.backoffFactor == 0 {
		p.backoffFactor = 2.0
	}
	return p
}

// Capacity returns the maximum number of texts per Embed call.
func (p *OpenAIProvider) Capacity() int { return p.batchSize }

// Embed generates embeddings for the given texts in a single API call.
func (p *OpenAIProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0)), nil
	}
	if p.apiKey == "" {
		return EmbeddingResponse{}, NewProviderError(p.name, 0, "no api key configured", ErrMissingAPIKey)
	}

	openaiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var err error
		resp, err = p.client.CreateEmbeddings(ctx, openaiReq)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return EmbeddingResponse{}, p.wrapError(err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return EmbeddingResponse{}, NewProviderError(p.name, 0, fmt.Sprintf("embedding index %d out of range", data.Index), nil)
		}
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		embeddings[data.Index] = vec
	}

	return NewEmbeddingResponse(embeddings, NewUsage(resp.Usage.PromptTokens, resp.Usage.TotalTokens)), nil
}

// withRetry executes fn with exponential backoff.
func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(p.name, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(p.name, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(p.name, 0, err.Error(), err)
}

var _ Embedder = (*OpenAIProvider)(nil)
