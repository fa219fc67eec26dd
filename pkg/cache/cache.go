// Package cache provides byte-oriented caching for layout results.
//
// Recomputing a layout is the expensive part of an optimization run (the
// annealing search dominates), and the result is a pure function of the
// working snapshot and the layout options. The optimizer therefore caches
// computed position maps keyed by a content hash of the snapshot plus the
// options that influenced the search.
//
// Three backends are provided: FileCache for CLI usage, RedisCache for the
// served API, and NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// TTLLayout is how long cached layout results stay valid. The key embeds a
// hash of the full input, so expiry only ever means recomputation.
const TTLLayout = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with TTL support.
type Cache interface {
	// Get retrieves a value. The boolean reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A non-positive ttl means the
	// entry does not expire.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the option fields that influence a layout result and
// therefore participate in its cache key.
type LayoutKeyOpts struct {
	SpacingFactor float64
	Seed          uint64
}

// Keyer generates cache keys. Implementations must be deterministic: the
// same inputs always produce the same key.
type Keyer interface {
	// LayoutKey generates a key for a layout result from the content hash
	// of the working snapshot and the options used.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation, e.g.
// per-board namespaces when several boards share one Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey generates a prefixed key for a layout result.
func (k *ScopedKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, opts)
}
