package persistence

import "github.com/helixml/stepsearch/domain/keyword"

// ModelEntity is a row of the models table. A NULL host marks a local model.
type ModelEntity struct {
	ID    int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Model string  `gorm:"column:model;type:text;not null"`
	Host  *string `gorm:"column:host;type:text"`
}

// TableName returns the table name.
func (ModelEntity) TableName() string { return "models" }

// ModelMapper maps between ModelRecord and ModelEntity.
type ModelMapper struct{}

// ToDomain converts a ModelEntity to a ModelRecord.
func (ModelMapper) ToDomain(e ModelEntity) keyword.ModelRecord {
	host := ""
	if e.Host != nil {
		host = *e.Host
	}
	return keyword.NewModelRecord(e.ID, e.Model, host)
}

// ToModel converts a ModelRecord to a ModelEntity.
func (ModelMapper) ToModel(m keyword.ModelRecord) ModelEntity {
	return ModelEntity{ID: m.ID(), Model: m.Model(), Host: nullableHost(m.Host())}
}

func nullableHost(host string) *string {
	if host == "" {
		return nil
	}
	return &host
}
