// Package cache stores computed layouts so repeated requests for the same
// graph, positions and options skip placement and routing.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the worker and server
//   - [NullCache]: stores nothing
//
// # Keys
//
// Keys are built by a [Keyer] from the SHA-256 of the serialized graph and
// the options that influence the result. [ScopedKeyer] prefixes every key so
// several deployments can share one Redis database.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	TTLPlacement = 7 * 24 * time.Hour
	TTLRoute     = 7 * 24 * time.Hour
)

// Key types reported to cache hooks.
const (
	KeyTypePlacement = "placement"
	KeyTypeRoute     = "route"
)

// Cache is a byte store with per-entry expiry. Get reports a miss with
// hit=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
