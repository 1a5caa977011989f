package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/stepsearch"
	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/infrastructure/api/middleware"
)

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Model    string              `json:"model"`
	Host     string              `json:"host"`
	Project  string              `json:"project"`
	Keywords []keyword.FileEntry `json:"keywords"`
}

// IngestRouter handles ingestion API endpoints.
type IngestRouter struct {
	client *stepsearch.Client
	logger *slog.Logger
}

// NewIngestRouter creates a new IngestRouter.
func NewIngestRouter(client *stepsearch.Client) *IngestRouter {
	return &IngestRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for ingestion endpoints.
func (r *IngestRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Ingest)

	return router
}

// Ingest handles POST /api/v1/ingest. It answers 204 once every partition
// has been written.
func (r *IngestRouter) Ingest(w http.ResponseWriter, req *http.Request) {
	var body IngestRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, keyword.NewError(keyword.ErrValidation, "request body", err), r.logger)
		return
	}

	entries, err := keyword.File{Keywords: body.Keywords}.Entries()
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	spec, err := resolveModel(r.client, body.Model, body.Host)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	project := body.Project
	if project == "" {
		project = r.client.Config().DefaultProject()
	}

	if err := r.client.Ingestion.Ingest(req.Context(), spec.Model, spec.Host, project, entries); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
