package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/infrastructure/persistence"
	infrasearch "github.com/helixml/stepsearch/infrastructure/search"
	"github.com/helixml/stepsearch/internal/testdb"
	"github.com/helixml/stepsearch/internal/testembed"
)

// fakeSelector hands out one embedder for every host except "Bogus".
type fakeSelector struct {
	embedder *testembed.Embedder
}

func (f fakeSelector) Select(_, host string) (search.Embedder, error) {
	if host == "Bogus" {
		return nil, keyword.NewError(keyword.ErrUnsupportedHost, host, nil)
	}
	return f.embedder, nil
}

type fixture struct {
	registry    persistence.ModelStore
	store       *infrasearch.SQLiteStore
	embedder    *testembed.Embedder
	ingestion   *Ingestion
	search      *Search
	maintenance *Maintenance
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testdb.New(t)
	logger := slog.New(slog.DiscardHandler)

	registry := persistence.NewModelStore(db)
	store := infrasearch.NewSQLiteStore(db, logger)
	embedder := testembed.New()
	selector := fakeSelector{embedder: embedder}

	return fixture{
		registry:    registry,
		store:       store,
		embedder:    embedder,
		ingestion:   NewIngestion(registry, store, selector, logger),
		search:      NewSearch(registry, store, selector, logger),
		maintenance: NewMaintenance(registry, store, logger),
	}
}

func ptr[T any](v T) *T { return &v }

func ingest(t *testing.T, f fixture, model, host, project string, entries ...keyword.Entry) {
	t.Helper()
	if err := f.ingestion.Ingest(context.Background(), model, host, project, entries); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}
