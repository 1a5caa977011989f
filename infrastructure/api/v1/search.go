// Package v1 provides the version 1 JSON API handlers.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/stepsearch"
	"github.com/helixml/stepsearch/application/service"
	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/infrastructure/api/middleware"
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Model       string `json:"model"`
	Host        string `json:"host"`
	Project     string `json:"project"`
	KeywordType string `json:"keyword_type"`
	Keyword     string `json:"keyword"`
	NbResults   *int   `json:"nb_results"`
}

// SearchResponse is the body returned by POST /api/v1/search.
type SearchResponse struct {
	Data []keyword.SearchResult `json:"data"`
}

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	client *stepsearch.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *stepsearch.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, keyword.NewError(keyword.ErrValidation, "request body", err), r.logger)
		return
	}

	category, err := keyword.ParseCategory(body.KeywordType)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	spec, err := resolveModel(r.client, body.Model, body.Host)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	cfg := r.client.Config()
	project := body.Project
	if project == "" {
		project = cfg.DefaultProject()
	}
	topK := cfg.SearchLimit()
	if body.NbResults != nil {
		topK = *body.NbResults
	}

	results, err := r.client.Search.Search(req.Context(), spec.Model, spec.Host, project, category, body.Keyword, topK)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if results == nil {
		results = []keyword.SearchResult{}
	}

	middleware.WriteJSON(w, http.StatusOK, SearchResponse{Data: results})
}

// resolveModel applies the default model and accepts "model@Host" when no
// separate host is given.
func resolveModel(client *stepsearch.Client, model, host string) (service.ModelSpec, error) {
	if model == "" {
		model = client.Config().DefaultModel()
	}
	if host != "" {
		return service.ModelSpec{Model: model, Host: host}, nil
	}
	return service.ParseModelSpec(model)
}
