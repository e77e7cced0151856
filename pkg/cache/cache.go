// Copyright 2023 the SDC AWS Processing Lambda authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache implements an in-memory cache with per-item expiry.
package cache

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrInvalidDuration = errors.New("expireAfter duration cannot be negative")

const initialSize = 16

// Func is a lookup function invoked on a cache miss.
type Func[T any] func() (T, error)

// Cache is a concurrency-safe cache whose entries expire a fixed duration
// after they are written.
type Cache[T any] struct {
	data        map[string]item[T]
	expireAfter time.Duration
	mu          sync.RWMutex
	group       singleflight.Group
}

type item[T any] struct {
	object    T
	expiresAt int64
}

func (i *item[T]) expired() bool {
	return i.expiresAt < time.Now().UnixNano()
}

// New creates a new in memory cache.
func New[T any](expireAfter time.Duration) (*Cache[T], error) {
	if expireAfter < 0 {
		return nil, ErrInvalidDuration
	}

	return &Cache[T]{
		data:        make(map[string]item[T], initialSize),
		expireAfter: expireAfter,
	}, nil
}

// Size returns the number of items in the cache, including expired items
// that have not yet been purged.
func (c *Cache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache, regardless of their expiration.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]item[T], initialSize)
}

// WriteThruLookup checks the cache for the value associated with name, and if
// not found or expired, invokes primaryLookup and stores its result.
// Concurrent misses for the same name share a single primaryLookup call, and
// the cache is not locked while it runs.
func (c *Cache[T]) WriteThruLookup(name string, primaryLookup Func[T]) (T, error) {
	if val, hit := c.Lookup(name); hit {
		return val, nil
	}

	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		// Another caller may have filled the entry before this flight began.
		if val, hit := c.Lookup(name); hit {
			return val, nil
		}

		newData, err := primaryLookup()
		if err != nil {
			return nil, err
		}
		c.Set(name, newData)
		return newData, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Lookup checks the cache for a non-expired object by the supplied key name.
// The bool reports whether there was a hit.
func (c *Cache[T]) Lookup(name string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookup(name)
}

// Set saves the value of an object in the cache.
func (c *Cache[T]) Set(name string, object T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[name] = item[T]{
		object:    object,
		expiresAt: time.Now().Add(c.expireAfter).UnixNano(),
	}
}

// lookup finds an unexpired item at the given name. Callers must hold a read
// or read-write lock.
func (c *Cache[T]) lookup(name string) (T, bool) {
	var zero T

	i, ok := c.data[name]
	if !ok {
		return zero, false
	}
	if i.expired() {
		go c.purgeExpired(name, i.expiresAt)
		return zero, false
	}
	return i.object, true
}

// purgeExpired removes an item if its expiry has not been refreshed since the
// purge was scheduled.
func (c *Cache[T]) purgeExpired(name string, expectedExpiryTime int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.data[name]; ok && i.expiresAt == expectedExpiryTime {
		delete(c.data, name)
	}
}
