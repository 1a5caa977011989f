package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/metrics"
)

// Ingestion registers models and upserts keyword and description documents.
type Ingestion struct {
	registry keyword.Registry
	store    search.Store
	selector search.EmbedderSelector
	logger   *slog.Logger
}

// NewIngestion creates a new Ingestion service.
func NewIngestion(registry keyword.Registry, store search.Store, selector search.EmbedderSelector, logger *slog.Logger) *Ingestion {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestion{
		registry: registry,
		store:    store,
		selector: selector,
		logger:   logger,
	}
}

// Ingest stores entries in the partitions of (model, host, project), one per
// category present. Entries are validated before anything is written.
// Categories are written one after the other, so a failure can leave earlier
// categories ingested.
func (s *Ingestion) Ingest(ctx context.Context, model, host, project string, entries []keyword.Entry) error {
	if err := keyword.ValidateProject(project); err != nil {
		return err
	}
	byCategory := make(map[keyword.Category][]keyword.Entry)
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		byCategory[e.Category()] = append(byCategory[e.Category()], e)
	}
	if len(byCategory) == 0 {
		return nil
	}

	embedder, err := s.selector.Select(model, host)
	if err != nil {
		return err
	}

	modelID, err := s.registry.ResolveOrCreate(ctx, model, host)
	if err != nil {
		return fmt.Errorf("register model: %w", err)
	}

	var done []string
	for _, category := range keyword.Categories() {
		group, ok := byCategory[category]
		if !ok {
			continue
		}
		name, err := keyword.EncodePartitionKey(modelID, project, category)
		if err != nil {
			return err
		}
		if err := s.ingestPartition(ctx, name, embedder, category, group); err != nil {
			if len(done) > 0 {
				s.logger.Warn("ingestion partially completed",
					"completed", done,
					"failed", name,
					"error", err,
				)
			}
			return err
		}
		done = append(done, name)
	}
	return nil
}

func (s *Ingestion) ingestPartition(ctx context.Context, name string, embedder search.Embedder, category keyword.Category, entries []keyword.Entry) error {
	partition, err := s.store.OpenOrCreate(ctx, name, embedder)
	if err != nil {
		return fmt.Errorf("open partition %s: %w", name, err)
	}

	entries = lastPerID(entries)
	keywords := make([]search.Document, 0, len(entries))
	var descriptions []search.Document
	for _, e := range entries {
		keywords = append(keywords, search.NewDocument(keyword.EncodeDocumentID(e.ExternalID(), false), e.Keyword()))
		if e.HasDescription() {
			descriptions = append(descriptions, search.NewDocument(keyword.EncodeDocumentID(e.ExternalID(), true), e.Description()))
		}
	}

	if err := partition.Upsert(ctx, keywords); err != nil {
		return fmt.Errorf("upsert keywords into %s: %w", name, err)
	}
	metrics.IngestedDocumentsTotal.WithLabelValues(category.String(), string(keyword.KindKeyword)).Add(float64(len(keywords)))

	if len(descriptions) > 0 {
		if err := partition.Upsert(ctx, descriptions); err != nil {
			return fmt.Errorf("upsert descriptions into %s: %w", name, err)
		}
		metrics.IngestedDocumentsTotal.WithLabelValues(category.String(), string(keyword.KindDescription)).Add(float64(len(descriptions)))
	}

	s.logger.Info("partition ingested",
		"partition", name,
		"keywords", len(keywords),
		"descriptions", len(descriptions),
	)
	return nil
}

// lastPerID keeps the last entry for each external id, at the position of
// the id's first occurrence. One upsert batch may not touch a row twice on
// PostgreSQL.
func lastPerID(entries []keyword.Entry) []keyword.Entry {
	pos := make(map[string]int, len(entries))
	out := make([]keyword.Entry, 0, len(entries))
	for _, e := range entries {
		if i, seen := pos[e.ExternalID()]; seen {
			out[i] = e
			continue
		}
		pos[e.ExternalID()] = len(out)
		out = append(out, e)
	}
	return out
}

// IngestFile decodes a keywords document from r and ingests it.
// It returns the number of entries ingested.
func (s *Ingestion) IngestFile(ctx context.Context, model, host, project string, r io.Reader) (int, error) {
	f, err := keyword.ReadFile(r)
	if err != nil {
		return 0, err
	}
	entries, err := f.Entries()
	if err != nil {
		return 0, err
	}
	if err := s.Ingest(ctx, model, host, project, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
