package provider

import (
	"context"
	"net/http"
	"strings"
)

// HuggingFaceFeatureURL is the inference API feature-extraction pipeline root.
const HuggingFaceFeatureURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"

const huggingFaceBatchSize = 32

// HuggingFaceProvider embeds text with the HuggingFace inference API.
type HuggingFaceProvider struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewHuggingFaceProvider creates a HuggingFaceProvider. A nil client uses http.DefaultClient.
func NewHuggingFaceProvider(model, apiKey string, client *http.Client) *HuggingFaceProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HuggingFaceProvider{client: client, baseURL: HuggingFaceFeatureURL, model: model, apiKey: apiKey}
}

type huggingFaceRequest struct {
	Inputs []string `json:"inputs"`
}

// Capacity returns the maximum number of texts per Embed call.
func (p *HuggingFaceProvider) Capacity() int { return huggingFaceBatchSize }

// Embed implements Embedder.
func (p *HuggingFaceProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0)), nil
	}
	if p.apiKey == "" {
		return EmbeddingResponse{}, NewProviderError("huggingface", 0, "no api key configured", ErrMissingAPIKey)
	}

	var out [][]float64
	url := strings.TrimSuffix(p.baseURL, "/") + "/" + p.model
	if err := postJSON(ctx, p.client, "huggingface", url, p.apiKey, huggingFaceRequest{Inputs: texts}, &out); err != nil {
		return EmbeddingResponse{}, err
	}
	if err := checkCount("huggingface", len(out), len(texts)); err != nil {
		return EmbeddingResponse{}, err
	}
	return NewEmbeddingResponse(out, NewUsage(0, 0)), nil
}

var _ Embedder = (*HuggingFaceProvider)(nil)
