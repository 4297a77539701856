// Package cache stores encoded query results under derived keys with a TTL.
// Entries are never authoritative; the store is always the source of truth.
package cache

import (
	"context"
	"time"
)

// Result is the outcome of a lookup. An empty Value with Hit set is a cached
// empty payload, not a miss.
type Result struct {
	Hit   bool
	Value []byte
}

// Miss is the zero Result.
var Miss = Result{}

// Hit wraps a cached payload.
func Hit(v []byte) Result {
	if v == nil {
		v = []byte{}
	}
	return Result{Hit: true, Value: v}
}

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) (Result, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
