package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/database"
	"gorm.io/gorm"
)

// PgvectorStore implements search.Store on PostgreSQL with the pgvector
// extension. The embedding column has no fixed dimension because each
// partition may use a different model.
type PgvectorStore struct {
	*sqlStore
}

var _ search.Store = (*PgvectorStore)(nil)

// NewPgvectorStore creates a new PgvectorStore.
func NewPgvectorStore(db database.Database, logger *slog.Logger) *PgvectorStore {
	return &PgvectorStore{sqlStore: newSQLStore(db, pgvectorDialect{}, logger)}
}

const pgvNearestQuery = `
SELECT doc_id, text, embedding <=> ?::vector AS distance
FROM vector_documents
WHERE partition_id = ?
ORDER BY distance ASC, id ASC
LIMIT ?`

type pgvectorDialect struct{}

func (pgvectorDialect) name() string { return "pgvector" }

func (pgvectorDialect) schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS vector_partitions (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS vector_documents (
    id BIGSERIAL PRIMARY KEY,
    partition_id BIGINT NOT NULL REFERENCES vector_partitions(id) ON DELETE CASCADE,
    doc_id VARCHAR(255) NOT NULL,
    text TEXT NOT NULL,
    embedding vector NOT NULL,
    UNIQUE (partition_id, doc_id)
)`,
		`CREATE INDEX IF NOT EXISTS vector_documents_partition_idx ON vector_documents (partition_id)`,
	}
}

type pgHitRow struct {
	DocID    string  `gorm:"column:doc_id"`
	Text     string  `gorm:"column:text"`
	Distance float64 `gorm:"column:distance"`
}

func (pgvectorDialect) nearest(_ context.Context, db *gorm.DB, partitionID int64, query []float64, topK int) ([]search.Hit, error) {
	var rows []pgHitRow
	if err := db.Raw(pgvNearestQuery, database.NewVector(query), partitionID, topK).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	hits := make([]search.Hit, len(rows))
	for i, r := range rows {
		hits[i] = search.NewHit(r.DocID, r.Text, r.Distance)
	}
	return hits, nil
}
