// Package testdb provides in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/helixml/stepsearch/infrastructure/persistence"
	"github.com/helixml/stepsearch/internal/database"
)

// New creates an in-memory SQLite database with the registry schema applied.
// The database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	db := NewPlain(t)
	if err := persistence.AutoMigrate(db); err != nil {
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	return db
}

// NewPlain creates an in-memory SQLite database without any schema.
func NewPlain(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.NewPlain: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithSchema creates an in-memory SQLite database and runs statements on it.
func WithSchema(t *testing.T, statements ...string) database.Database {
	t.Helper()
	db := NewPlain(t)
	for _, stmt := range statements {
		if err := db.Session(context.Background()).Exec(stmt).Error; err != nil {
			t.Fatalf("testdb.WithSchema: %v\nSQL: %s", err, stmt)
		}
	}
	return db
}
