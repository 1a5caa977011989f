package stepsearch

import (
	"errors"

	"github.com/helixml/stepsearch/domain/keyword"
)

// Exported errors for library consumers.
var (
	// ErrNoDatabase indicates no database URL was configured.
	ErrNoDatabase = errors.New("stepsearch: no database configured")

	// ErrStoreMismatch indicates the vector store cannot run on the configured database.
	ErrStoreMismatch = errors.New("stepsearch: vector store does not match database")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("stepsearch: client is closed")
)

// Error kinds returned by search and ingestion. Match with errors.Is.
var (
	ErrValidation        = keyword.ErrValidation
	ErrNotFound          = keyword.ErrNotFound
	ErrUnknownModel      = keyword.ErrUnknownModel
	ErrUnknownPartition  = keyword.ErrUnknownPartition
	ErrParse             = keyword.ErrParse
	ErrEmbeddingProvider = keyword.ErrEmbeddingProvider
	ErrIndexCorruption   = keyword.ErrIndexCorruption
	ErrUnsupportedHost   = keyword.ErrUnsupportedHost
)
