// Package search implements the vector index on SQLite, pgvector and Qdrant.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// embedBatchSize bounds the number of texts sent to an embedder at once.
const embedBatchSize = 64

// ErrInitializationFailed indicates the vector schema could not be created.
var ErrInitializationFailed = errors.New("failed to initialize vector store")

// dialect holds what differs between the SQL backends.
type dialect interface {
	name() string
	schema() []string
	nearest(ctx context.Context, db *gorm.DB, partitionID int64, query []float64, topK int) ([]search.Hit, error)
}

// sqlStore stores every partition in one shared pair of tables.
type sqlStore struct {
	db          database.Database
	docs        database.Repository[search.Document, DocumentEntity]
	dialect     dialect
	logger      *slog.Logger
	mu          sync.Mutex
	initialized bool
}

func newSQLStore(db database.Database, d dialect, logger *slog.Logger) *sqlStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqlStore{
		db:      db,
		docs:    database.NewRepository[search.Document, DocumentEntity](db, documentMapper{}, "document"),
		dialect: d,
		logger:  logger,
	}
}

func (s *sqlStore) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	// Raw SQL because the embedding column type differs per backend.
	for _, stmt := range s.dialect.schema() {
		if err := s.db.Session(ctx).Exec(stmt).Error; err != nil {
			return errors.Join(ErrInitializationFailed, fmt.Errorf("%s: %w", s.dialect.name(), err))
		}
	}
	s.initialized = true
	return nil
}

func (s *sqlStore) find(ctx context.Context, name string) (PartitionEntity, error) {
	var entity PartitionEntity
	err := s.db.Session(ctx).Where("name = ?", name).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PartitionEntity{}, fmt.Errorf("%w: %s", search.ErrPartitionNotFound, name)
	}
	if err != nil {
		return PartitionEntity{}, fmt.Errorf("find partition %s: %w", name, err)
	}
	return entity, nil
}

// OpenOrCreate returns the named partition, creating it if needed.
func (s *sqlStore) OpenOrCreate(ctx context.Context, name string, embedder search.Embedder) (search.Partition, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	entity := PartitionEntity{Name: name}
	err := s.db.Session(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&entity).Error
	if err != nil {
		return nil, fmt.Errorf("create partition %s: %w", name, err)
	}
	return s.Open(ctx, name, embedder)
}

// Open returns an existing partition.
func (s *sqlStore) Open(ctx context.Context, name string, embedder search.Embedder) (search.Partition, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	entity, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	return &sqlPartition{store: s, id: entity.ID, name: name, embedder: embedder}, nil
}

// Partitions lists partition names in lexical order.
func (s *sqlStore) Partitions(ctx context.Context) ([]string, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	var names []string
	err := s.db.Session(ctx).Model(&PartitionEntity{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	return names, nil
}

// Documents returns every document of the named partition.
func (s *sqlStore) Documents(ctx context.Context, name string) ([]search.Document, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	entity, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.documents(ctx, entity.ID)
}

func (s *sqlStore) documents(ctx context.Context, partitionID int64) ([]search.Document, error) {
	return s.docs.Find(ctx, database.Where("partition_id = ?", partitionID), database.OrderBy("id ASC"))
}

// Reset drops every partition and document.
func (s *sqlStore) Reset(ctx context.Context) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&DocumentEntity{}).Error; err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		if err := all.Delete(&PartitionEntity{}).Error; err != nil {
			return fmt.Errorf("delete partitions: %w", err)
		}
		return nil
	})
}

type sqlPartition struct {
	store    *sqlStore
	id       int64
	name     string
	embedder search.Embedder
}

func (p *sqlPartition) Name() string { return p.name }

// Upsert embeds every document and writes it in one transaction, replacing
// rows with the same id.
func (p *sqlPartition) Upsert(ctx context.Context, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	entities := make([]DocumentEntity, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text()
		}
		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents for %s: %w", p.name, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed documents for %s: expected %d embeddings, got %d", p.name, len(batch), len(vectors))
		}
		for i, d := range batch {
			entities = append(entities, DocumentEntity{
				PartitionID: p.id,
				DocID:       d.ID(),
				Text:        d.Text(),
				Embedding:   database.NewVector(vectors[i]),
			})
		}
	}

	err := database.WithTransaction(ctx, p.store.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "partition_id"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "embedding"}),
		}).CreateInBatches(&entities, embedBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("upsert documents into %s: %w", p.name, err)
	}

	p.store.logger.Debug("upserted documents", "partition", p.name, "count", len(entities))
	return nil
}

func (p *sqlPartition) All(ctx context.Context) ([]search.Document, error) {
	return p.store.documents(ctx, p.id)
}

func (p *sqlPartition) Query(ctx context.Context, text string, topK int) ([]search.Hit, error) {
	if topK <= 0 {
		return []search.Hit{}, nil
	}
	query, err := search.EmbedOne(ctx, p.embedder, text)
	if err != nil {
		return nil, fmt.Errorf("embed query for %s: %w", p.name, err)
	}
	return p.store.dialect.nearest(ctx, p.store.db.Session(ctx), p.id, query, topK)
}
