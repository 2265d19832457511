// Package cache provides the result cache used by the solve pipeline.
//
// Solving is deterministic: the same point list and options always produce
// the same answers, so results can be memoised by a hash of the canonical
// input plus every option that affects the outcome.
//
// # Backends
//
//   - [FileCache]: JSON entries on local disk, the CLI default
//   - [RedisCache]: a shared Redis server, for teams running the same inputs
//   - [NullCache]: caching disabled
//
// # Keys
//
// Keys are produced by a [Keyer] so backends never have to know what is being
// stored. [ScopedKeyer] adds a namespace prefix, which lets several users
// share one Redis database.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached items.
const (
	// ResultTTL applies to solved results. Results never go stale, so the
	// TTL only bounds disk and memory usage.
	ResultTTL = 30 * 24 * time.Hour

	// RenderTTL applies to rendered graph artifacts, which are larger.
	RenderTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// ResultKeyOpts holds every option that changes a solve result.
type ResultKeyOpts struct {
	Part        int    `json:"part"`
	Connections int    `json:"connections"`
	Budget      string `json:"budget"`
	Axis        string `json:"axis"`
}

// RenderKeyOpts holds every option that changes a rendered artifact.
type RenderKeyOpts struct {
	Format      string `json:"format"`
	Connections int    `json:"connections"`
	Budget      string `json:"budget"`
	Layout      string `json:"layout"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey keys a solve result by the hash of the canonical input.
	ResultKey(inputHash string, opts ResultKeyOpts) string

	// RenderKey keys a rendered artifact by the hash of the canonical input.
	RenderKey(inputHash string, opts RenderKeyOpts) string
}

// DefaultKeyer produces unprefixed keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(inputHash string, opts ResultKeyOpts) string {
	return hashKey("result", inputHash, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(inputHash string, opts RenderKeyOpts) string {
	return hashKey("render", inputHash, opts)
}
