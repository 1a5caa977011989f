package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/internal/database"
	"gorm.io/gorm/clause"
)

// ModelStore implements keyword.Registry using GORM.
type ModelStore struct {
	database.Repository[keyword.ModelRecord, ModelEntity]
}

var _ keyword.Registry = ModelStore{}

// NewModelStore creates a new ModelStore.
func NewModelStore(db database.Database) ModelStore {
	return ModelStore{
		Repository: database.NewRepository[keyword.ModelRecord, ModelEntity](db, ModelMapper{}, "model"),
	}
}

func pairScope(model, host string) database.Scope {
	if host == "" {
		return database.Where("model = ? AND host IS NULL", model)
	}
	return database.Where("model = ? AND host = ?", model, host)
}

// ResolveOrCreate returns the id for (model, host), inserting it if needed.
// A losing concurrent insert is ignored by the unique indexes and the
// winner's row is read back.
func (s ModelStore) ResolveOrCreate(ctx context.Context, model, host string) (int64, error) {
	if model == "" {
		return 0, keyword.NewError(keyword.ErrValidation, model, errors.New("model name is empty"))
	}
	if id, ok, err := s.Lookup(ctx, model, host); err != nil || ok {
		return id, err
	}

	entity := ModelEntity{Model: model, Host: nullableHost(host)}
	if err := s.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entity).Error; err != nil {
		return 0, fmt.Errorf("register model %s: %w", keyword.NewModelRecord(0, model, host).Spec(), err)
	}

	id, ok, err := s.Lookup(ctx, model, host)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("register model %s: row missing after insert", keyword.NewModelRecord(0, model, host).Spec())
	}
	return id, nil
}

// Lookup returns the id for (model, host) if registered.
func (s ModelStore) Lookup(ctx context.Context, model, host string) (int64, bool, error) {
	record, err := s.FindOne(ctx, pairScope(model, host))
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return record.ID(), true, nil
}

// Get returns the record with the given id.
func (s ModelStore) Get(ctx context.Context, id int64) (keyword.ModelRecord, error) {
	record, err := s.FindOne(ctx, database.Where("id = ?", id))
	if errors.Is(err, database.ErrNotFound) {
		return keyword.ModelRecord{}, keyword.NewError(keyword.ErrNotFound, strconv.FormatInt(id, 10), err)
	}
	return record, err
}

// All lists every registered model ordered by id.
func (s ModelStore) All(ctx context.Context) ([]keyword.ModelRecord, error) {
	return s.Find(ctx, database.OrderBy("id ASC"))
}
