package provider

import (
	"context"
	"net/http"
)

// CohereEmbedURL is the Cohere v1 embed endpoint.
const CohereEmbedURL = "https://api.cohere.ai/v1/embed"

const cohereBatchSize = 96

// CohereProvider embeds text with the Cohere embed API.
type CohereProvider struct {
	client *http.Client
	url    string
	model  string
	apiKey string
}

// NewCohereProvider creates a CohereProvider. A nil client uses http.DefaultClient.
func NewCohereProvider(model, apiKey string, client *http.Client) *CohereProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &CohereProvider{client: client, url: CohereEmbedURL, model: model, apiKey: apiKey}
}

type cohereRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type cohereResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Capacity returns the maximum number of texts per Embed call.
func (p *CohereProvider) Capacity() int { return cohereBatchSize }

// Embed implements Embedder.
func (p *CohereProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0)), nil
	}
	if p.apiKey == "" {
		return EmbeddingResponse{}, NewProviderError("cohere", 0, "no api key configured", ErrMissingAPIKey)
	}

	var out cohereResponse
	body := cohereRequest{Model: p.model, Texts: texts, InputType: "search_document"}
	if err := postJSON(ctx, p.client, "cohere", p.url, p.apiKey, body, &out); err != nil {
		return EmbeddingResponse{}, err
	}
	if err := checkCount("cohere", len(out.Embeddings), len(texts)); err != nil {
		return EmbeddingResponse{}, err
	}
	return NewEmbeddingResponse(out.Embeddings, NewUsage(0, 0)), nil
}

var _ Embedder = (*CohereProvider)(nil)
