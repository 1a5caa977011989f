// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/metrics"
)

// Search answers nearest-neighbor queries against one partition and merges
// keyword and description hits into SearchResult records.
type Search struct {
	registry keyword.Registry
	store    search.Store
	selector search.EmbedderSelector
	logger   *slog.Logger
}

// NewSearch creates a new Search service.
func NewSearch(registry keyword.Registry, store search.Store, selector search.EmbedderSelector, logger *slog.Logger) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{
		registry: registry,
		store:    store,
		selector: selector,
		logger:   logger,
	}
}

// Search runs query against the (model, host, project, category) partition
// and returns one record per hit in rank order. A search never registers a
// model or creates a partition.
func (s *Search) Search(ctx context.Context, model, host, project string, category keyword.Category, query string, topK int) ([]keyword.SearchResult, error) {
	results, err := s.search(ctx, model, host, project, category, query, topK)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(category.String(), status).Inc()

	return results, err
}

func (s *Search) search(ctx context.Context, model, host, project string, category keyword.Category, query string, topK int) ([]keyword.SearchResult, error) {
	if topK <= 0 {
		return nil, keyword.NewError(keyword.ErrValidation, fmt.Sprint(topK), errors.New("number of results must be positive"))
	}

	spec := keyword.NewModelRecord(0, model, host).Spec()
	modelID, ok, err := s.registry.Lookup(ctx, model, host)
	if err != nil {
		return nil, fmt.Errorf("lookup model: %w", err)
	}
	if !ok {
		return nil, keyword.NewError(keyword.ErrUnknownModel, spec, nil)
	}

	name, err := keyword.EncodePartitionKey(modelID, project, category)
	if err != nil {
		return nil, err
	}

	embedder, err := s.selector.Select(model, host)
	if err != nil {
		return nil, err
	}

	partition, err := s.store.Open(ctx, name, embedder)
	if errors.Is(err, search.ErrPartitionNotFound) {
		return nil, keyword.NewError(keyword.ErrUnknownPartition, name,
			fmt.Errorf("model %s and/or project %s do not exist", spec, project))
	}
	if err != nil {
		return nil, fmt.Errorf("open partition: %w", err)
	}

	docs, err := partition.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load partition: %w", err)
	}
	hits, err := partition.Query(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("query partition: %w", err)
	}

	results, err := Merge(hits, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search completed",
		"partition", name,
		"query", query,
		"hits", len(hits),
	)
	return results, nil
}

// Merge turns raw hits into SearchResult records, in the same order and
// count as hits. docs must hold every document of the partition; it supplies
// the sibling text, while hits supply sibling distances.
func Merge(hits []search.Hit, docs []search.Document) ([]keyword.SearchResult, error) {
	texts := make(map[string]string, len(docs))
	for _, d := range docs {
		texts[d.ID()] = d.Text()
	}
	distances := make(map[string]float64, len(hits))
	for _, h := range hits {
		distances[h.ID()] = h.Distance()
	}

	results := make([]keyword.SearchResult, 0, len(hits))
	for _, h := range hits {
		externalID, kind, err := keyword.DecodeDocumentID(h.ID())
		if err != nil {
			return nil, err
		}
		sibling, err := keyword.SiblingID(h.ID())
		if err != nil {
			return nil, err
		}

		text, distance := h.Text(), h.Distance()
		r := keyword.SearchResult{ID: externalID}

		switch kind {
		case keyword.KindKeyword:
			r.Match = keyword.MatchKeyword
			r.Keyword, r.KeywordDistance = &text, &distance
			if desc, ok := texts[sibling]; ok {
				r.Description = &desc
				if d, ok := distances[sibling]; ok {
					r.DescriptionDistance = &d
				}
			}
		case keyword.KindDescription:
			r.Match = keyword.MatchDescription
			r.Description, r.DescriptionDistance = &text, &distance
			kw, ok := texts[sibling]
			if !ok {
				return nil, keyword.NewError(keyword.ErrIndexCorruption, h.ID(),
					fmt.Errorf("description has no keyword %s", sibling))
			}
			r.Keyword = &kw
			if d, ok := distances[sibling]; ok {
				r.KeywordDistance = &d
			}
		}
		results = append(results, r)
	}
	return results, nil
}
