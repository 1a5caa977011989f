package keyword

import "context"

// Registry assigns a stable integer id to every (model, host) pair.
// An empty host stands for the local provider and is distinct from every
// non-empty host.
type Registry interface {
	// ResolveOrCreate returns the id of the pair, registering it on first use.
	// Concurrent callers for the same pair receive the same id.
	ResolveOrCreate(ctx context.Context, model, host string) (int64, error)

	// Lookup returns the id of a registered pair without creating one.
	Lookup(ctx context.Context, model, host string) (int64, bool, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (ModelRecord, error)

	// All lists every registered pair ordered by id.
	All(ctx context.Context) ([]ModelRecord, error)
}
