package api

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/helixml/stepsearch/application/service"
	apimiddleware "github.com/helixml/stepsearch/infrastructure/api/middleware"
)

// Dumper returns the whole index.
type Dumper interface {
	Dump(ctx context.Context) (service.Snapshot, error)
}

// Viewer serves the read-only views of the index.
type Viewer struct {
	dumper Dumper
	logger *slog.Logger
}

// NewViewer creates a Viewer.
func NewViewer(dumper Dumper, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{dumper: dumper, logger: logger}
}

// DatabaseResponse is the body of GET /database.
type DatabaseResponse struct {
	Status string                               `json:"status"`
	Data   map[string][]service.DumpedDocument `json:"data"`
}

// Database handles GET /database.
func (v *Viewer) Database(w http.ResponseWriter, r *http.Request) {
	snapshot, err := v.dumper.Dump(r.Context())
	if err != nil {
		apimiddleware.WriteError(w, r, err, v.logger)
		return
	}
	apimiddleware.WriteJSON(w, http.StatusOK, DatabaseResponse{Status: "success", Data: snapshot.ByName()})
}

// Index handles GET / with an HTML page listing every partition.
func (v *Viewer) Index(w http.ResponseWriter, r *http.Request) {
	snapshot, err := v.dumper.Dump(r.Context())
	if err != nil {
		apimiddleware.WriteError(w, r, err, v.logger)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, snapshot); err != nil {
		v.logger.Error("render index", slog.Any("error", err))
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>stepsearch</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #eee; }
</style>
</head>
<body>
<h1>Indexed keywords</h1>
{{- if not .Partitions}}
<p>The index is empty.</p>
{{- end}}
{{- range .Partitions}}
<h2>{{.Name}}</h2>
{{- if .Model}}
<p>Model <code>{{.Model}}</code>, project <code>{{.Project}}</code>, category <code>{{.Category}}</code>. {{len .Documents}} documents.</p>
{{- end}}
<table>
<tr><th>ID</th><th>Content</th></tr>
{{- range .Documents}}
<tr><td>{{.ID}}</td><td>{{.Content}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))
