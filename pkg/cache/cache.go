// Package cache stores rendered artifacts and computed layouts keyed by the
// content hash of the report they were derived from.
//
// Three backends implement [Cache]:
//
//   - [NullCache] never stores anything (caching disabled).
//   - [FileCache] keeps entries as JSON files on disk, for the CLI.
//   - [RedisCache] shares entries between server replicas.
//
// Keys come from a [Keyer] so that every backend agrees on the layout:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(cache.Hash(raw), cache.ArtifactKeyOpts{Format: "svg", Width: 1600, Height: 900})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the data for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}
