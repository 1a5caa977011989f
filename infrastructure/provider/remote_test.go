package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCohereProvider_Embed(t *testing.T) {
	var got cohereRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer co-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "x",
			"embeddings": [][]float64{{1, 0}, {0, 1}},
		})
	}))
	defer srv.Close()

	p := NewCohereProvider("embed-english-v3.0", "co-key", srv.Client())
	p.url = srv.URL

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"a", "b"}))
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 0}, {0, 1}}, resp.Embeddings())
	require.Equal(t, "embed-english-v3.0", got.Model)
	require.Equal(t, []string{"a", "b"}, got.Texts)
	require.Equal(t, "search_document", got.InputType)
}

func TestCohereProvider_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid api token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewCohereProvider("m", "co-key", srv.Client())
	p.url = srv.URL

	_, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"a"}))
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, http.StatusUnauthorized, perr.StatusCode())
	require.Contains(t, perr.Message(), "invalid api token")
}

func TestCohereProvider_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer srv.Close()

	p := NewCohereProvider("m", "co-key", srv.Client())
	p.url = srv.URL

	_, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"a", "b"}))
	require.Error(t, err)
}

func TestHuggingFaceProvider_Embed(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		var body huggingFaceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		out := make([][]float64, len(body.Inputs))
		for i := range out {
			out[i] = []float64{float64(i), 0.5}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("sentence-transformers/all-MiniLM-L6-v2", "hf-key", srv.Client())
	p.baseURL = srv.URL + "/pipeline/feature-extraction/"

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"a", "b", "c"}))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 3)
	require.Equal(t, []float64{2, 0.5}, resp.Embeddings()[2])
	require.Equal(t, "/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2", path)
}

func TestHuggingFaceProvider_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("m", "hf-key", srv.Client())
	p.baseURL = srv.URL

	_, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"a"}))
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "huggingface", perr.Provider())
}

func TestRemoteProviders_MissingKey(t *testing.T) {
	_, err := NewCohereProvider("m", "", nil).Embed(context.Background(), NewEmbeddingRequest([]string{"a"}))
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewHuggingFaceProvider("m", "", nil).Embed(context.Background(), NewEmbeddingRequest([]string{"a"}))
	require.ErrorIs(t, err, ErrMissingAPIKey)
}
