// Package cache provides a small TTL key-value cache with in-memory
// and Redis backends.
//
// The engine uses it for the subscriber reverse index: computing "who
// subscribes to topic X" is a user-meta table scan, so the result is
// cached briefly and invalidated on every subscription change. TTLs
// are therefore expected to be short; correctness never depends on a
// cache hit.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with TTL support.
//
// TTL semantics for Set: positive expires after the duration, zero
// uses the backend's configured default, negative never expires.
type Cache[V any] interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) (V, error)

	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a key. Absent keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Marshaler serializes values for byte-oriented backends.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var flight singleflight.Group

type flightResult[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet returns the cached value for key, or computes it with fn on
// a miss. Concurrent misses for the same key share one fn call via
// singleflight. A failed fn is not cached; its error is returned.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	// The flight key carries the cache identity so two caches using the
	// same key never share a computation.
	res, err, _ := flight.Do(fmt.Sprintf("%p/%s", c, key), func() (any, error) {
		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return flightResult[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := res.(flightResult[V])
	_ = c.Set(ctx, key, r.val, r.ttl) // best effort
	return r.val, nil
}
