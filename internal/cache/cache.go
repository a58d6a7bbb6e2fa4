// Package cache memoizes byte payloads for a fixed time window.
package cache

import (
	"context"
	"time"
)

// Cache stores values until their TTL passes. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}
