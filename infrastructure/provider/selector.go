package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
)

// Supported remote hosts. The empty host selects the local model.
const (
	HostLocal       = ""
	HostCohere      = "Cohere"
	HostTogether    = "Together"
	HostMistral     = "Mistral"
	HostHuggingFace = "HuggingFace"
)

// Hosts returns the supported remote host names.
func Hosts() []string {
	return []string{HostCohere, HostTogether, HostMistral, HostHuggingFace}
}

// APIKeyEnv returns the environment variable holding the key for host.
func APIKeyEnv(host string) string {
	return strings.ToUpper(host) + "_API_KEY"
}

// Selector maps a (model, host) pair to an embedding provider.
type Selector struct {
	modelDir   string
	httpClient *http.Client
	getenv     func(string) string
	logger     *slog.Logger
	endpoints  map[string]string
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithModelDir sets the directory holding local models.
func WithModelDir(dir string) SelectorOption {
	return func(s *Selector) { s.modelDir = dir }
}

// WithHTTPClient sets the client used by remote providers.
func WithHTTPClient(c *http.Client) SelectorOption {
	return func(s *Selector) { s.httpClient = c }
}

// WithGetenv replaces os.Getenv for API key lookup.
func WithGetenv(fn func(string) string) SelectorOption {
	return func(s *Selector) { s.getenv = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// WithEndpoint overrides the API base URL for host.
func WithEndpoint(host, url string) SelectorOption {
	return func(s *Selector) { s.endpoints[host] = url }
}

// NewSelector creates a Selector.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{
		httpClient: http.DefaultClient,
		getenv:     os.Getenv,
		logger:     slog.Default(),
		endpoints:  map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) endpoint(host, fallback string) string {
	if url, ok := s.endpoints[host]; ok {
		return url
	}
	return fallback
}

// Select returns the embedder for model served by host. Unknown hosts fail
// with keyword.ErrUnsupportedHost.
func (s *Selector) Select(model, host string) (search.Embedder, error) {
	var (
		inner Embedder
		name  string
	)
	apiKey := s.getenv(APIKeyEnv(host))

	switch host {
	case HostLocal:
		inner, name = NewHugotEmbedding(s.modelDir, model), "local"
	case HostCohere:
		p := NewCohereProvider(model, apiKey, s.httpClient)
		p.url = s.endpoint(host, CohereEmbedURL)
		inner, name = p, "cohere"
	case HostTogether:
		inner, name = NewOpenAIProvider(OpenAIConfig{
			Name:       "together",
			APIKey:     apiKey,
			BaseURL:    s.endpoint(host, TogetherBaseURL),
			Model:      model,
			HTTPClient: s.httpClient,
		}), "together"
	case HostMistral:
		inner, name = NewOpenAIProvider(OpenAIConfig{
			Name:       "mistral",
			APIKey:     apiKey,
			BaseURL:    s.endpoint(host, MistralBaseURL),
			Model:      model,
			HTTPClient: s.httpClient,
		}), "mistral"
	case HostHuggingFace:
		p := NewHuggingFaceProvider(model, apiKey, s.httpClient)
		p.baseURL = s.endpoint(host, HuggingFaceFeatureURL)
		inner, name = p, "huggingface"
	default:
		return nil, keyword.NewError(keyword.ErrUnsupportedHost, host,
			fmt.Errorf("supported hosts are %s or none", strings.Join(Hosts(), ", ")))
	}

	spec := keyword.NewModelRecord(0, model, host).Spec()
	return &searchEmbedder{
		inner: NewInstrumented(inner, name, model, s.logger),
		spec:  spec,
	}, nil
}

// searchEmbedder adapts a provider Embedder to search.Embedder, splitting
// requests to the provider's capacity and tagging failures with
// keyword.ErrEmbeddingProvider.
type searchEmbedder struct {
	inner *Instrumented
	spec  string
}

func (e *searchEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	size := e.inner.Capacity()
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		batch := texts[start:min(start+size, len(texts))]
		resp, err := e.inner.Embed(ctx, NewEmbeddingRequest(batch))
		if err != nil {
			return nil, keyword.NewError(keyword.ErrEmbeddingProvider, e.spec, err)
		}
		if len(resp.Embeddings()) != len(batch) {
			return nil, keyword.NewError(keyword.ErrEmbeddingProvider, e.spec,
				fmt.Errorf("got %d vectors for %d texts", len(resp.Embeddings()), len(batch)))
		}
		out = append(out, resp.Embeddings()...)
	}
	return out, nil
}

var _ search.Embedder = (*searchEmbedder)(nil)
