package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

var _ shared.BlobStore = (*MemoryBlobStore)(nil)

type memoryObject struct {
	body []byte
	meta shared.BlobObject
}

// MemoryBlobStore is an in-process BlobStore for tests and local runs.
// ETags are the hex MD5 of the body, like S3 single-part uploads.
// WARNING: data is lost on restart and not shared between instances.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	now     func() time.Time
}

// NewMemoryBlobStore creates an empty store whose URLs start with baseURL
func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryBlobStore{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds
func (m *MemoryBlobStore) Ping(context.Context) error {
	return nil
}

// Put stores a copy of body
func (m *MemoryBlobStore) Put(_ context.Context, pathname string, body []byte, opts shared.PutOptions) (*shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.objects[key]
	if opts.IfNoneMatch && exists {
		return nil, shared.ErrPreconditionFailed
	}
	if opts.IfMatch != "" && (!exists || existing.meta.ETag != trimETag(opts.IfMatch)) {
		return nil, shared.ErrPreconditionFailed
	}

	sum := md5.Sum(body)
	meta := shared.BlobObject{
		Pathname:    key,
		URL:         objectURL(m.baseURL, key),
		Size:        int64(len(body)),
		ContentType: opts.ContentType,
		ETag:        hex.EncodeToString(sum[:]),
		UploadedAt:  m.now(),
	}
	m.objects[key] = memoryObject{body: append([]byte(nil), body...), meta: meta}
	out := meta
	return &out, nil
}

// Get returns a copy of the stored body
func (m *MemoryBlobStore) Get(_ context.Context, pathname string) ([]byte, *shared.BlobObject, error) {
	key, err := CleanPathname(pathname)
	if err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, nil, shared.ErrBlobNotFound
	}
	meta := obj.meta
	return append([]byte(nil), obj.body...), &meta, nil
}

// Head returns object metadata
func (m *MemoryBlobStore) Head(ctx context.Context, pathname string) (*shared.BlobObject, error) {
	_, meta, err := m.Get(ctx, pathname)
	return meta, err
}

// Delete removes an object if present
func (m *MemoryBlobStore) Delete(_ context.Context, pathname string) error {
	key, err := CleanPathname(pathname)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// List returns objects under prefix sorted by pathname
func (m *MemoryBlobStore) List(_ context.Context, prefix string) ([]shared.BlobObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []shared.BlobObject
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pathname < out[j].Pathname })
	return out, nil
}

// Len returns the number of stored objects
func (m *MemoryBlobStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
