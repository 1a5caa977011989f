package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeOpenAIServer mimics the /embeddings endpoint. Vectors are
// [index, len(text), 1] so tests can check ordering.
func fakeOpenAIServer(t *testing.T, counter *atomic.Int64, status int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
			return
		}
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unhappy","type":"server_error"}}`))
			return
		}

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		// Reverse the order to check the provider honours "index".
		data := make([]map[string]any, len(body.Input))
		for i, text := range body.Input {
			data[len(body.Input)-1-i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(i), float64(len(text)), 1},
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": len(body.Input) * 4, "total_tokens": len(body.Input) * 4},
		})
	}))
}

func testOpenAIProvider(url, key string) *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{
		Name:         "together",
		APIKey:       key,
		BaseURL:      url,
		Model:        "test-model",
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
	})
}

func TestOpenAIProvider_EmbedEmpty(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, http.StatusOK)
	defer srv.Close()

	resp, err := testOpenAIProvider(srv.URL, "test-key").Embed(context.Background(), NewEmbeddingRequest(nil))
	require.NoError(t, err)
	require.Empty(t, resp.Embeddings())
	require.Equal(t, int64(0), counter.Load(), "no HTTP request for empty input")
}

func TestOpenAIProvider_EmbedOrdersByIndex(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, http.StatusOK)
	defer srv.Close()

	resp, err := testOpenAIProvider(srv.URL, "test-key").Embed(context.Background(), NewEmbeddingRequest([]string{"a", "bbb"}))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 2)
	require.Equal(t, []float64{0, 1, 1}, resp.Embeddings()[0])
	require.Equal(t, []float64{1, 3, 1}, resp.Embeddings()[1])
	require.Equal(t, 8, resp.Usage().TotalTokens())
	require.Equal(t, int64(1), counter.Load())
}

func TestOpenAIProvider_MissingKey(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, http.StatusOK)
	defer srv.Close()

	_, err := testOpenAIProvider(srv.URL, "").Embed(context.Background(), NewEmbeddingRequest([]string{"x"}))
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Equal(t, int64(0), counter.Load())
}

func TestOpenAIProvider_RetriesServerErrors(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, http.StatusServiceUnavailable)
	defer srv.Close()

	_, err := testOpenAIProvider(srv.URL, "test-key").Embed(context.Background(), NewEmbeddingRequest([]string{"x"}))
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, http.StatusServiceUnavailable, perr.StatusCode())
	require.Equal(t, int64(2), counter.Load(), "one attempt plus one retry")
}

func TestOpenAIProvider_DoesNotRetryAuthErrors(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, http.StatusOK)
	defer srv.Close()

	_, err := testOpenAIProvider(srv.URL, "wrong-key").Embed(context.Background(), NewEmbeddingRequest([]string{"x"}))
	require.Error(t, err)
	require.Equal(t, int64(1), counter.Load())
}

func TestOpenAIProvider_CancelledContext(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, http.StatusOK)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testOpenAIProvider(srv.URL, "test-key").Embed(ctx, NewEmbeddingRequest([]string{"x"}))
	require.Error(t, err)
	require.Equal(t, int64(0), counter.Load())
}
