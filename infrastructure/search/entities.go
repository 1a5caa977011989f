package search

import (
	"github.com/helixml/stepsearch/domain/search"
	"github.com/helixml/stepsearch/internal/database"
)

const (
	partitionTable = "vector_partitions"
	documentTable  = "vector_documents"
)

// PartitionEntity is a row of the partition catalogue.
type PartitionEntity struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name"`
}

// TableName returns the table name.
func (PartitionEntity) TableName() string { return partitionTable }

// DocumentEntity is one embedded document. The embedding column is JSON on
// SQLite and an untyped pgvector column on PostgreSQL; both accept the
// "[1,2,3]" literal written by database.Vector.
type DocumentEntity struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PartitionID int64           `gorm:"column:partition_id"`
	DocID       string          `gorm:"column:doc_id"`
	Text        string          `gorm:"column:text"`
	Embedding   database.Vector `gorm:"column:embedding"`
}

// TableName returns the table name.
func (DocumentEntity) TableName() string { return documentTable }

type documentMapper struct{}

func (documentMapper) ToDomain(e DocumentEntity) search.Document {
	return search.NewDocument(e.DocID, e.Text)
}

func (documentMapper) ToModel(d search.Document) DocumentEntity {
	return DocumentEntity{DocID: d.ID(), Text: d.Text()}
}
