package database

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

func itemsDB(t *testing.T) Database {
	t.Helper()
	db, _ := openFile(t)
	if err := db.Session(context.Background()).Exec("CREATE TABLE test_items (id INTEGER PRIMARY KEY, name TEXT)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func countItems(t *testing.T, db Database) int64 {
	t.Helper()
	var count int64
	if err := db.Session(context.Background()).Raw("SELECT COUNT(*) FROM test_items").Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func TestWithTransaction_Commit(t *testing.T) {
	ctx := context.Background()
	db := itemsDB(t)

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
	if got := countItems(t, db); got != 1 {
		t.Errorf("expected 1 row, got %d", got)
	}
}

func TestWithTransaction_Rollback(t *testing.T) {
	ctx := context.Background()
	db := itemsDB(t)
	sentinel := errors.New("abort")

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error; err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if got := countItems(t, db); got != 0 {
		t.Errorf("expected rollback to leave 0 rows, got %d", got)
	}
}

func TestWithTransactionResult(t *testing.T) {
	ctx := context.Background()
	db := itemsDB(t)

	id, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (int64, error) {
		if err := tx.Exec("INSERT INTO test_items (name) VALUES (?)", "item1").Error; err != nil {
			return 0, err
		}
		var id int64
		err := tx.Raw("SELECT id FROM test_items WHERE name = ?", "item1").Scan(&id).Error
		return id, err
	})
	if err != nil {
		t.Fatalf("WithTransactionResult: %v", err)
	}
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}

	got, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (int64, error) {
		return 99, errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != 0 {
		t.Errorf("expected zero value on error, got %d", got)
	}
}
