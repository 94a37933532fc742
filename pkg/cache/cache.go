// Package cache stores rendered layout previews between CLI invocations.
//
// The [Cache] interface is a plain byte store with optional expiry. Keys are
// derived by a [Keyer] from the content hash of a layout document and the
// render options, so any edit to a layout produces a new key and stale
// entries simply expire.
//
//	c, err := cache.NewFileCache(dir)
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.PreviewKey(cache.Hash(doc), cache.PreviewKeyOpts{CellWidth: 3, CellHeight: 1})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store keyed by string.
type Cache interface {
	// Get returns the value and true on a hit. Expired or unreadable entries
	// are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// PreviewKey returns the key of a rendered preview of the layout whose
	// document hashes to layoutHash.
	PreviewKey(layoutHash string, opts PreviewKeyOpts) string
}

// PreviewKeyOpts are the render options that change a preview.
type PreviewKeyOpts struct {
	CellWidth  int    `json:"cell_width"`
	CellHeight int    `json:"cell_height"`
	Style      string `json:"style,omitempty"`
	Catalog    string `json:"catalog,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PreviewKey implements [Keyer].
func (DefaultKeyer) PreviewKey(layoutHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", layoutHash, opts)
}
