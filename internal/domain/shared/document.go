package shared

import "context"

// Document is a versioned singleton JSON document.
// Version is the backing object's ETag; it is empty when nothing is stored
// under Key yet.
type Document[T any] struct {
	Key     string
	Version string
	URL     string
	Value   T
	// Source is the key the value was read from. It differs from Key when the
	// document was found under a legacy location.
	Source string
}

// Exists reports whether the document is stored under its canonical key
func (d *Document[T]) Exists() bool {
	return d != nil && d.Version != ""
}

// Migrated reports whether the value came from a legacy key
func (d *Document[T]) Migrated() bool {
	return d != nil && d.Source != "" && d.Source != d.Key
}

// DocumentStore reads and writes a single Document with optimistic concurrency
type DocumentStore[T any] interface {
	// Load returns the current document. A missing document is returned with
	// a zero Value and an empty Version. A stored value that fails decoding
	// returns ErrMalformedDocument.
	Load(ctx context.Context) (*Document[T], error)

	// CompareAndSwap writes next only if the stored version still matches
	// current.Version (or, when current does not exist, only if nothing has
	// been stored since). A lost race returns ErrConcurrencyConflict.
	CompareAndSwap(ctx context.Context, current *Document[T], next T) (*Document[T], error)

	// Overwrite writes next unconditionally
	Overwrite(ctx context.Context, next T) (*Document[T], error)
}
