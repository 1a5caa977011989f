package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestAPIKeyEnv(t *testing.T) {
	require.Equal(t, "COHERE_API_KEY", APIKeyEnv(HostCohere))
	require.Equal(t, "HUGGINGFACE_API_KEY", APIKeyEnv(HostHuggingFace))
}

func TestSelector_Dispatch(t *testing.T) {
	s := NewSelector(WithModelDir(t.TempDir()), WithGetenv(env(nil)))

	cases := map[string]string{
		HostLocal:       "local",
		HostCohere:      "cohere",
		HostTogether:    "together",
		HostMistral:     "mistral",
		HostHuggingFace: "huggingface",
	}
	for host, provider := range cases {
		e, err := s.Select("m", host)
		require.NoError(t, err, host)
		adapter, ok := e.(*searchEmbedder)
		require.True(t, ok)
		require.Equal(t, provider, adapter.inner.provider)
	}
}

func TestSelector_UnsupportedHost(t *testing.T) {
	_, err := NewSelector().Select("m", "example.com")
	require.ErrorIs(t, err, keyword.ErrUnsupportedHost)

	// Host names are matched exactly.
	_, err = NewSelector().Select("m", "cohere")
	require.ErrorIs(t, err, keyword.ErrUnsupportedHost)
}

func TestSelector_MissingKeyIsProviderError(t *testing.T) {
	e, err := NewSelector(WithGetenv(env(nil))).Select("m", HostMistral)
	require.NoError(t, err, "a missing key fails at first use, not at selection")

	_, err = e.Embed(context.Background(), []string{"a"})
	require.ErrorIs(t, err, keyword.ErrEmbeddingProvider)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSelector_BatchesToCapacity(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var body cohereRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		out := make([][]float64, len(body.Texts))
		for i, text := range body.Texts {
			out[i] = []float64{float64(len(text))}
		}
		_ = json.NewEncoder(w).Encode(cohereResponse{Embeddings: out})
	}))
	defer srv.Close()

	s := NewSelector(
		WithGetenv(env(map[string]string{"COHERE_API_KEY": "k"})),
		WithHTTPClient(srv.Client()),
		WithEndpoint(HostCohere, srv.URL),
	)
	e, err := s.Select("embed-english-v3.0", HostCohere)
	require.NoError(t, err)

	texts := make([]string, cohereBatchSize+5)
	for i := range texts {
		texts[i] = strings.Repeat("x", i%7)
	}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	require.Equal(t, []float64{float64(len(texts[cohereBatchSize+4]))}, vectors[cohereBatchSize+4])
	require.Equal(t, int64(2), requests.Load())
}

func TestSelector_UpstreamFailureKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSelector(
		WithGetenv(env(map[string]string{"HUGGINGFACE_API_KEY": "k"})),
		WithHTTPClient(srv.Client()),
		WithEndpoint(HostHuggingFace, srv.URL),
	)
	e, err := s.Select("m", HostHuggingFace)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a"})
	require.ErrorIs(t, err, keyword.ErrEmbeddingProvider)

	var kerr *keyword.Error
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, "m@HuggingFace", kerr.Subject())
}
