package shared

import (
	"context"
	"errors"
	"time"
)

// Blob store errors returned by every BlobStore implementation
var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrPreconditionFailed = errors.New("blob precondition failed")
)

// BlobObject describes an object held by a BlobStore
type BlobObject struct {
	Pathname    string
	URL         string
	Size        int64
	ContentType string
	ETag        string
	UploadedAt  time.Time
}

// PutOptions controls a single write.
// IfMatch and IfNoneMatch are mutually exclusive conditional-write guards.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// IfMatch only writes when the stored ETag equals this value
	IfMatch string
	// IfNoneMatch only writes when no object exists at the pathname
	IfNoneMatch bool
}

// BlobStore is an opaque key-addressed object store.
// Implementations live in the infrastructure layer (S3, MinIO, memory).
type BlobStore interface {
	// Put writes the body, overwriting any existing object unless a guard is set.
	// A failed guard returns ErrPreconditionFailed.
	Put(ctx context.Context, pathname string, body []byte, opts PutOptions) (*BlobObject, error)

	// Get returns the body and metadata, or ErrBlobNotFound
	Get(ctx context.Context, pathname string) ([]byte, *BlobObject, error)

	// Head returns the metadata only, or ErrBlobNotFound
	Head(ctx context.Context, pathname string) (*BlobObject, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, pathname string) error

	// List returns every object whose pathname starts with prefix
	List(ctx context.Context, prefix string) ([]BlobObject, error)

	// Ping checks that the backing bucket is reachable
	Ping(ctx context.Context) error
}
