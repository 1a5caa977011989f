// Package persistence provides the relational storage behind the model registry.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixml/stepsearch/internal/database"
)

// Partial unique indexes keep (model, host) unique while treating every
// NULL host as the same value.
var registryIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_models_model_host ON models (model, host) WHERE host IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_models_model_local ON models (model) WHERE host IS NULL`,
}

// AutoMigrate creates the registry schema.
func AutoMigrate(db database.Database) error {
	ctx := context.Background()
	if err := db.Session(ctx).AutoMigrate(&ModelEntity{}); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	var errs []error
	for _, stmt := range registryIndexes {
		if err := db.Session(ctx).Exec(stmt).Error; err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("create registry indexes: %w", err)
	}
	return nil
}
