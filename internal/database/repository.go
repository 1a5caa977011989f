package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound indicates the requested entity was not found.
var ErrNotFound = errors.New("entity not found")

// EntityMapper maps between domain and database model types.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
	ToModel(domain D) E
}

// Scope narrows a query. It has the shape GORM's Scopes expects.
type Scope func(*gorm.DB) *gorm.DB

// Where returns a Scope adding a WHERE clause.
func Where(query string, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) }
}

// OrderBy returns a Scope adding an ORDER BY clause.
func OrderBy(order string) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Order(order) }
}

// Repository provides generic persistence operations for one entity type.
type Repository[D any, E any] struct {
	db     Database
	mapper EntityMapper[D, E]
	label  string
}

// NewRepository creates a new Repository.
func NewRepository[D any, E any](db Database, mapper EntityMapper[D, E], label string) Repository[D, E] {
	return Repository[D, E]{db: db, mapper: mapper, label: label}
}

// DB returns a GORM session bound to ctx.
func (r Repository[D, E]) DB(ctx context.Context) *gorm.DB {
	return r.db.Session(ctx)
}

func (r Repository[D, E]) scoped(ctx context.Context, scopes []Scope) *gorm.DB {
	db := r.DB(ctx)
	for _, s := range scopes {
		db = s(db)
	}
	return db
}

// Find retrieves every entity matching the scopes.
func (r Repository[D, E]) Find(ctx context.Context, scopes ...Scope) ([]D, error) {
	var entities []E
	if err := r.scoped(ctx, scopes).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, err)
	}
	domains := make([]D, len(entities))
	for i, entity := range entities {
		domains[i] = r.mapper.ToDomain(entity)
	}
	return domains, nil
}

// FindOne retrieves the first entity matching the scopes.
func (r Repository[D, E]) FindOne(ctx context.Context, scopes ...Scope) (D, error) {
	var entity E
	var zero D
	err := r.scoped(ctx, scopes).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
	}
	if err != nil {
		return zero, fmt.Errorf("find one %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(entity), nil
}

// Count returns the number of entities matching the scopes.
func (r Repository[D, E]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var count int64
	if err := r.scoped(ctx, scopes).Model(new(E)).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, err)
	}
	return count, nil
}

// DeleteAll removes every row of the entity's table.
func (r Repository[D, E]) DeleteAll(ctx context.Context) error {
	err := r.DB(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(E)).Error
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.label, err)
	}
	return nil
}

// Mapper returns the entity mapper.
func (r Repository[D, E]) Mapper() EntityMapper[D, E] {
	return r.mapper
}
