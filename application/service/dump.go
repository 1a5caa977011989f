package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
)

// DumpedDocument is one stored document as shown by dump.
type DumpedDocument struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
}

// DumpedPartition is a partition and its documents.
type DumpedPartition struct {
	Name      string           `json:"name" yaml:"name"`
	Model     string           `json:"model,omitempty" yaml:"model,omitempty"`
	Project   string           `json:"project,omitempty" yaml:"project,omitempty"`
	Category  string           `json:"category,omitempty" yaml:"category,omitempty"`
	Documents []DumpedDocument `json:"documents" yaml:"documents"`
}

// Snapshot is the full content of the index.
type Snapshot struct {
	Partitions []DumpedPartition `json:"partitions" yaml:"partitions"`
}

// ByName maps partition names to their documents.
func (s Snapshot) ByName() map[string][]DumpedDocument {
	out := make(map[string][]DumpedDocument, len(s.Partitions))
	for _, p := range s.Partitions {
		out[p.Name] = p.Documents
	}
	return out
}

// Registrar extends keyword.Registry with the destructive reset.
type Registrar interface {
	keyword.Registry
	DeleteAll(ctx context.Context) error
}

// Maintenance dumps and resets the whole index.
type Maintenance struct {
	registry Registrar
	store    search.Store
	logger   *slog.Logger
}

// NewMaintenance creates a new Maintenance service.
func NewMaintenance(registry Registrar, store search.Store, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{registry: registry, store: store, logger: logger}
}

// Models lists every registered model.
func (m *Maintenance) Models(ctx context.Context) ([]keyword.ModelRecord, error) {
	return m.registry.All(ctx)
}

// Partitions lists every partition name.
func (m *Maintenance) Partitions(ctx context.Context) ([]string, error) {
	return m.store.Partitions(ctx)
}

// Dump returns every partition with its documents sorted by id.
// Partitions whose name does not decode are still listed, without model details.
func (m *Maintenance) Dump(ctx context.Context) (Snapshot, error) {
	names, err := m.store.Partitions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list partitions: %w", err)
	}

	models, err := m.registry.All(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list models: %w", err)
	}
	specs := make(map[int64]string, len(models))
	for _, r := range models {
		specs[r.ID()] = r.Spec()
	}

	snapshot := Snapshot{Partitions: make([]DumpedPartition, 0, len(names))}
	for _, name := range names {
		docs, err := m.store.Documents(ctx, name)
		if err != nil {
			return Snapshot{}, fmt.Errorf("read partition %s: %w", name, err)
		}
		p := DumpedPartition{Name: name, Documents: make([]DumpedDocument, 0, len(docs))}
		if key, err := keyword.DecodePartitionKey(name); err == nil {
			p.Model = specs[key.ModelID()]
			p.Project = key.Project()
			p.Category = key.Category().String()
		} else {
			m.logger.Warn("partition name does not decode", "partition", name, "error", err)
		}
		for _, d := range docs {
			p.Documents = append(p.Documents, DumpedDocument{ID: d.ID(), Content: d.Text()})
		}
		sort.Slice(p.Documents, func(i, j int) bool { return p.Documents[i].ID < p.Documents[j].ID })
		snapshot.Partitions = append(snapshot.Partitions, p)
	}
	return snapshot, nil
}

// Reset drops every partition and then clears the model registry.
func (m *Maintenance) Reset(ctx context.Context) error {
	if err := m.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset vector store: %w", err)
	}
	if err := m.registry.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset model registry: %w", err)
	}
	m.logger.Info("index reset")
	return nil
}
