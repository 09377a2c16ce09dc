// Package cache provides a TTL'd response cache for the price API. Raw
// response bodies are stored as opaque bytes so a cache hit replays the
// exact payload that was cached, byte for byte.
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tidwall/buntdb"
)

// ResponseCache stores HTTP response bodies with a fixed time-to-live,
// backed by BuntDB. It is safe for concurrent use.
type ResponseCache struct {
	hits   int64
	misses int64

	db  *buntdb.DB
	ttl time.Duration
}

// Stats is a point-in-time snapshot of cache effectiveness.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// New creates an in-memory response cache whose entries expire after ttl.
func New(ttl time.Duration) (*ResponseCache, error) {
	return NewFromFile(":memory:", ttl)
}

// NewFromFile creates a file-backed response cache, surviving restarts.
func NewFromFile(file string, ttl time.Duration) (*ResponseCache, error) {
	db, err := buntdb.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: buntdb.Never,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	return &ResponseCache{
		db:  db,
		ttl: ttl,
	}, nil
}

// TTL returns the configured entry lifetime.
func (c *ResponseCache) TTL() time.Duration { return c.ttl }

// Get returns the cached body for key and whether it was present. Every
// call counts as a hit or a miss.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	var body []byte
	err := c.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key)
		if err != nil {
			return err
		}
		body = []byte(value)
		return nil
	})

	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return body, true
}

// Set stores body under key with the cache TTL, replacing any previous
// entry.
func (c *ResponseCache) Set(key string, body []byte) error {
	err := c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(body), &buntdb.SetOptions{
			Expires: true,
			TTL:     c.ttl,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Keys returns the keys of all live entries.
func (c *ResponseCache) Keys() ([]string, error) {
	keys := make([]string, 0)
	err := c.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("*", func(key, _ string) bool {
			keys = append(keys, key)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	return keys, nil
}

// Stats returns the hit and miss counters together with the number of
// live entries.
func (c *ResponseCache) Stats() (Stats, error) {
	var entries int
	err := c.db.View(func(tx *buntdb.Tx) error {
		n, err := tx.Len()
		entries = n
		return err
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count cache entries: %w", err)
	}

	return Stats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: entries,
	}, nil
}

// Clear drops every entry and resets the hit and miss counters.
func (c *ResponseCache) Clear() error {
	err := c.db.Update(func(tx *buntdb.Tx) error {
		return tx.DeleteAll()
	})
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	return nil
}

// Close closes the underlying database.
func (c *ResponseCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
