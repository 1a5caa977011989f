package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helixml/stepsearch"
	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/infrastructure/api"
	"github.com/helixml/stepsearch/internal/config"
	"github.com/helixml/stepsearch/internal/testembed"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	client, err := stepsearch.New(
		stepsearch.WithDataDir(t.TempDir()),
		stepsearch.WithEmbedderSelector(testembed.Selector{Embedder: testembed.New()}),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return api.NewAPIServer(client, "test").Handler()
}

func newProtectedHandler(t *testing.T, keys ...string) http.Handler {
	t.Helper()
	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()), config.WithAPIKeys(keys...))
	client, err := stepsearch.New(
		stepsearch.WithConfig(cfg),
		stepsearch.WithEmbedderSelector(testembed.Selector{Embedder: testembed.New()}),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return api.NewAPIServer(client, "test").Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func ingestFixture(t *testing.T, h http.Handler) {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/ingest", map[string]any{
		"model":   "test-model",
		"project": "Shop",
		"keywords": []keyword.FileEntry{
			{ID: "a1", Type: "Action", Keyword: "I add the item to the cart", Description: "put a product in the basket"},
			{ID: "a2", Type: "Action", Keyword: "I pay with a card"},
			{ID: "o1", Type: "Outcome", Keyword: "the order is confirmed"},
		},
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("ingest status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestAPIServer_Health(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestAPIServer_IngestThenSearch(t *testing.T) {
	h := newTestHandler(t)
	ingestFixture(t, h)

	w := do(t, h, http.MethodPost, "/api/v1/search", map[string]any{
		"model":        "test-model",
		"project":      "Shop",
		"keyword_type": "Action",
		"keyword":      "I add the item to the cart",
		"nb_results":   2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []keyword.SearchResult `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Data))
	}
	first := resp.Data[0]
	if first.ID != "a1" || first.Match != keyword.MatchKeyword {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.Description == nil || *first.Description != "put a product in the basket" {
		t.Errorf("description not attached: %+v", first)
	}
}

func TestAPIServer_SearchErrors(t *testing.T) {
	h := newTestHandler(t)
	ingestFixture(t, h)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"unknown model", map[string]any{"model": "nope", "project": "Shop", "keyword_type": "Action", "keyword": "x"}, http.StatusNotFound},
		{"unknown partition", map[string]any{"model": "test-model", "project": "Shop", "keyword_type": "Context", "keyword": "x"}, http.StatusNotFound},
		{"bad category", map[string]any{"model": "test-model", "keyword_type": "Given", "keyword": "x"}, http.StatusBadRequest},
		{"bad project", map[string]any{"model": "test-model", "project": "a-b", "keyword_type": "Action", "keyword": "x"}, http.StatusBadRequest},
		{"unregistered host", map[string]any{"model": "test-model", "host": "Bogus", "project": "Shop", "keyword_type": "Action", "keyword": "x"}, http.StatusNotFound},
		{"zero results", map[string]any{"model": "test-model", "project": "Shop", "keyword_type": "Action", "keyword": "x", "nb_results": 0}, http.StatusBadRequest},
		{"malformed body", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/search", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAPIServer_IngestValidation(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/v1/ingest", map[string]any{
		"model":    "test-model",
		"keywords": []keyword.FileEntry{{ID: "x-k", Type: "Action", Keyword: "bad id"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/v1/ingest", map[string]any{
		"model":    "test-model@Bogus",
		"keywords": []keyword.FileEntry{{ID: "a1", Type: "Action", Keyword: "I pay"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unsupported host status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestAPIServer_Database(t *testing.T) {
	h := newTestHandler(t)
	ingestFixture(t, h)

	w := do(t, h, http.MethodGet, "/database", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Status string                       `json:"status"`
		Data   map[string][]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(resp.Data))
	}
	for name, docs := range resp.Data {
		if strings.HasSuffix(name, "-Shop-Action") && len(docs) != 3 {
			t.Errorf("partition %s has %d documents, want 3", name, len(docs))
		}
	}
}

func TestAPIServer_Viewer(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "The index is empty") {
		t.Errorf("empty viewer: %d %s", w.Code, w.Body.String())
	}

	ingestFixture(t, h)
	w = do(t, h, http.MethodGet, "/", nil)
	body := w.Body.String()
	if !strings.Contains(body, "Shop-Outcome") || !strings.Contains(body, "the order is confirmed") {
		t.Errorf("viewer missing partition: %s", body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestAPIServer_Metrics(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodGet, "/health", nil)

	w := do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "stepsearch_http_requests_total") {
		t.Error("expected http request counter in metrics output")
	}
}

func TestAPIServer_NotFound(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/nonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestAPIServer_IngestRequiresAPIKey(t *testing.T) {
	h := newProtectedHandler(t, "secret")
	body := map[string]any{
		"model":    "test-model",
		"project":  "Shop",
		"keywords": []keyword.FileEntry{{ID: "a1", Type: "Action", Keyword: "I pay with a card"}},
	}

	w := do(t, h, http.MethodPost, "/api/v1/ingest", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("ingest without key: status = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodPost, "/api/v1/ingest", body, "X-API-KEY", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("ingest with wrong key: status = %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/database", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("database without key: status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "Shop-Action") {
		t.Fatal("rejected ingest reached the index")
	}

	w = do(t, h, http.MethodPost, "/api/v1/ingest", body, "X-API-KEY", "secret")
	if w.Code != http.StatusNoContent {
		t.Fatalf("ingest with key: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/v1/search", map[string]any{
		"model":        "test-model",
		"project":      "Shop",
		"keyword_type": "Action",
		"keyword":      "I pay",
	})
	if w.Code != http.StatusOK {
		t.Errorf("search without key: status = %d, body = %s", w.Code, w.Body.String())
	}
}
