package poster

import (
	"context"
)

// CachedResponse is the stored form of a fetched poster
type CachedResponse struct {
	Data     []byte
	MIMEType string
}

// ResponseCache stores raw poster responses keyed by request URL.
// Eviction is up to the implementation; the loader never deletes entries.
type ResponseCache interface {
	// Get returns the entry for key and whether it was found
	Get(ctx context.Context, key string) (*CachedResponse, bool, error)

	// Put stores resp under key, replacing any previous entry
	Put(ctx context.Context, key string, resp CachedResponse) error
}

// NullCache is a no-op cache that never stores anything.
// Useful when caching should be disabled.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() *NullCache {
	return &NullCache{}
}

// Get always returns a cache miss.
func (c *NullCache) Get(ctx context.Context, key string) (*CachedResponse, bool, error) {
	return nil, false, nil
}

// Put does nothing.
func (c *NullCache) Put(ctx context.Context, key string, resp CachedResponse) error {
	return nil
}

var _ ResponseCache = (*NullCache)(nil)
