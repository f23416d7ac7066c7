package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/yourusername/mediafetch/internal/domain"
)

var boltBuckets = struct {
	Metadata    []byte
	Collections []byte
}{
	Metadata:    []byte("__metadata__"),
	Collections: []byte("collections"),
}

var boltVersionKey = []byte("version")

const boltCacheVersion = 1

// BoltCollectionCache implements CollectionCache on a bbolt file
type BoltCollectionCache struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltCollectionCache opens the cache at path, creating buckets as needed
func NewBoltCollectionCache(path string) (*BoltCollectionCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(boltBuckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(boltBuckets.Collections); err != nil {
			return err
		}

		version := 0
		if raw := metadata.Get(boltVersionKey); raw != nil {
			if err := json.Unmarshal(raw, &version); err != nil {
				return err
			}
		}
		if version > boltCacheVersion {
			return fmt.Errorf("cache version %d is newer than supported %d", version, boltCacheVersion)
		}

		raw, err := json.Marshal(boltCacheVersion)
		if err != nil {
			return err
		}
		return metadata.Put(boltVersionKey, raw)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCollectionCache{db: db, now: time.Now}, nil
}

// Get returns the cached metadata for ref, or nil if missing or stale
func (c *BoltCollectionCache) Get(ref string, maxAge time.Duration) (*domain.CollectionMetadata, error) {
	var meta *domain.CollectionMetadata
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(boltBuckets.Collections).Get([]byte(ref))
		if raw == nil {
			return nil
		}
		var stored domain.CollectionMetadata
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("corrupt cache entry for %s: %w", ref, err)
		}
		if c.now().Sub(stored.ResolvedAt) <= maxAge {
			meta = &stored
		}
		return nil
	})
	return meta, err
}

// Put stores or replaces the metadata for ref, stamped with the current time
func (c *BoltCollectionCache) Put(ref string, meta *domain.CollectionMetadata) error {
	stored := *meta
	stored.ResolvedAt = c.now()
	raw, err := json.Marshal(&stored)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBuckets.Collections).Put([]byte(ref), raw)
	})
}

// Purge deletes entries older than maxAge
func (c *BoltCollectionCache) Purge(maxAge time.Duration) (int64, error) {
	var removed int64
	cutoff := c.now().Add(-maxAge)
	err := c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBuckets.Collections)
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var stored domain.CollectionMetadata
			if err := json.Unmarshal(v, &stored); err != nil || stored.ResolvedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Close closes the bolt file
func (c *BoltCollectionCache) Close() error {
	return c.db.Close()
}
