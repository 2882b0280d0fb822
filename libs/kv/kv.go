// Package kv is the persistence boundary: a namespaced key-value store with
// interchangeable backends (Redis, Postgres, in-memory).
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

func ReadyCheck(store Store) func(context.Context) error {
	return func(ctx context.Context) error {
		if store == nil {
			return errors.New("store not configured")
		}
		return store.Ping(ctx)
	}
}
