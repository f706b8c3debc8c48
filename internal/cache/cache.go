// Package cache implements the content-addressed chunk result cache that
// sits between generator dispatch and the worker pool: a previously
// computed region or brush result for an identical request is served
// without re-running the generator. It caches only computed terrain, never
// generator registrations, so it does not reintroduce the persistence
// Non-goal the server otherwise honors.
package cache

import (
	"encoding/binary"
	"path/filepath"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/boltdb/bolt"
)

// Cache is an embedded bbolt key/value store bucketed by generator name,
// fronted by an in-memory negative-fingerprint check (xxhash of the
// caller's key) so a storm of cold misses for the same key doesn't pay a
// bbolt round-trip on every repeat.
type Cache struct {
	db *bolt.DB

	mu       sync.RWMutex
	negative map[uint64]struct{}
}

const timestampLen = 8

// Open opens (creating if absent) the bbolt database backing the cache.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, negative: make(map[uint64]struct{})}, nil
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	return c.db.Close()
}

func fingerprint(key []byte) uint64 {
	return xxhash.Checksum64(key)
}

// Get looks up key within bucket (the generator name). The bool result is
// false on a miss; a hit also refreshes the entry's last-access timestamp
// for GC purposes.
func (c *Cache) Get(bucket string, key []byte) ([]byte, bool, error) {
	fp := fingerprint(key)

	c.mu.RLock()
	_, known := c.negative[fp]
	c.mu.RUnlock()
	if known {
		return nil, false, nil
	}

	var stored []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return nil
		}
		v := bk.Get(key)
		if v != nil {
			stored = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if stored == nil || len(stored) < timestampLen {
		c.mu.Lock()
		c.negative[fp] = struct{}{}
		c.mu.Unlock()
		return nil, false, nil
	}

	c.touch(bucket, key, stored[timestampLen:])
	return stored[timestampLen:], true, nil
}

// Put stores value under key within bucket, stamping it with the current
// time for GC, and clears any stale negative fingerprint for key.
func (c *Cache) Put(bucket string, key, value []byte) error {
	c.mu.Lock()
	delete(c.negative, fingerprint(key))
	c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		bk, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return bk.Put(key, stampedValue(value))
	})
}

func (c *Cache) touch(bucket string, key, value []byte) {
	_ = c.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucket))
		if bk == nil {
			return nil
		}
		return bk.Put(key, stampedValue(value))
	})
}

func stampedValue(value []byte) []byte {
	buf := make([]byte, timestampLen+len(value))
	binary.BigEndian.PutUint64(buf[:timestampLen], uint64(time.Now().Unix()))
	copy(buf[timestampLen:], value)
	return buf
}

// GC removes every entry, across every bucket, whose last access is older
// than maxAge. It returns the number of entries removed.
func (c *Cache) GC(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	removed := 0

	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, bk *bolt.Bucket) error {
			cur := bk.Cursor()
			for k, v := cur.First(); k != nil; k, v = cur.Next() {
				if len(v) < timestampLen {
					continue
				}
				ts := int64(binary.BigEndian.Uint64(v[:timestampLen]))
				if ts < cutoff {
					if err := cur.Delete(); err != nil {
						return err
					}
					removed++
				}
			}
			return nil
		})
	})
	return removed, err
}
