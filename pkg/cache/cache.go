// Package cache stores rendered artifacts keyed by content hash.
//
// Rendering a compiled graph to SVG, PDF or PNG goes through graphviz and is
// the only expensive step of the check/render pipeline. The runner hashes the
// visualization graph and caches each rendered format under that hash, so
// re-rendering an unchanged document is a cache hit. Compiled programs are
// never cached.
//
// Implementations:
//   - [FileCache]: one file per entry under the XDG cache directory (CLI)
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// TTLArtifact is how long a rendered artifact stays cached.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the cache's resources.
	Close() error
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Layout  string  `json:"layout,omitempty"`  // graphviz layout engine
	Scale   float64 `json:"scale,omitempty"`   // PNG scale factor
	Blocked []int   `json:"blocked,omitempty"` // highlighted node ids
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key of a rendered artifact of the graph with
	// the given content hash.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey implements Keyer. The key is "artifact:" followed by the
// SHA-256 of the graph hash and options.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	data, _ := json.Marshal(struct {
		Graph string          `json:"graph"`
		Opts  ArtifactKeyOpts `json:"opts"`
	}{graphHash, opts})
	return "artifact:" + Hash(data)
}

// Hash returns the hex SHA-256 of data (64 characters).
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NullCache misses on every Get and drops every Set.
type NullCache struct{}

// NewNullCache returns a cache with caching disabled.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
