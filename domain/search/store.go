// Package search defines the vector index contracts shared by every backend.
package search

import (
	"context"
	"errors"
)

// ErrPartitionNotFound is returned by Store.Open for a missing partition.
var ErrPartitionNotFound = errors.New("partition not found")

// Store manages named partitions of a vector index.
type Store interface {
	// OpenOrCreate returns the named partition, creating it if needed.
	OpenOrCreate(ctx context.Context, name string, embedder Embedder) (Partition, error)

	// Open returns an existing partition or ErrPartitionNotFound.
	Open(ctx context.Context, name string, embedder Embedder) (Partition, error)

	// Partitions lists partition names in lexical order.
	Partitions(ctx context.Context) ([]string, error)

	// Documents returns every document of the named partition without
	// needing an embedder.
	Documents(ctx context.Context, name string) ([]Document, error)

	// Reset drops every partition.
	Reset(ctx context.Context) error
}

// Partition is one named collection of documents embedded by a single model.
type Partition interface {
	Name() string

	// Upsert inserts or replaces documents by id, embedding their text.
	Upsert(ctx context.Context, docs []Document) error

	// All returns every document in the partition.
	All(ctx context.Context) ([]Document, error)

	// Query returns at most topK hits ordered by ascending distance.
	Query(ctx context.Context, text string, topK int) ([]Hit, error)
}
