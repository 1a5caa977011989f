package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/database"
	"gorm.io/gorm"
)

// SQLiteStore implements search.Store on SQLite. Embeddings are stored as
// JSON and ranked in process.
type SQLiteStore struct {
	*sqlStore
}

var _ search.Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db database.Database, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{sqlStore: newSQLStore(db, sqliteDialect{}, logger)}
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS vector_partitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name VARCHAR(255) NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS vector_documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    partition_id INTEGER NOT NULL REFERENCES vector_partitions(id) ON DELETE CASCADE,
    doc_id VARCHAR(255) NOT NULL,
    text TEXT NOT NULL,
    embedding JSON NOT NULL,
    UNIQUE (partition_id, doc_id)
)`,
	}
}

func (sqliteDialect) nearest(_ context.Context, db *gorm.DB, partitionID int64, query []float64, topK int) ([]search.Hit, error) {
	var entities []DocumentEntity
	if err := db.Where("partition_id = ?", partitionID).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	return nearest(query, entities, topK), nil
}
