// Package cache provides a byte cache for derived artifacts so repeat
// runs over the same record set skip recomputation: serialized layouts
// keyed by structural fingerprint and terminal frames keyed by
// (fingerprint, expanded-set hash, chunk size).
//
// Three backends share one interface: [FileCache] for the CLI,
// [RedisCache] for the server, and [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found;
	// an expired or missing key is (nil, false, nil), not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
