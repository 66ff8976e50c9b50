package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	annotationBucket = "annotations"
	deltaTokenBucket = "delta_tokens"
	int64ValueBytes  = 8
)

// boltStore implements Store on BoltDB. Annotation keys map to their
// big-endian unix expiry; feed keys map to their last delta token.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	annotationTTL   time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{annotationBucket, deltaTokenBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		annotationTTL:   opts.AnnotationTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenAnnotation reports whether id was relayed and has not expired yet.
// Expired entries are deleted on read.
func (b *boltStore) SeenAnnotation(id string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := mustBucket(tx, annotationBucket)
		if err != nil {
			return err
		}

		key := []byte(id)
		expiry, ok := decodeUnix(bucket.Get(key))
		if !ok {
			return nil
		}
		if !expiry.After(now) {
			return bucket.Delete(key)
		}
		exists = true
		return nil
	})
	return exists, err
}

// MarkAnnotation records id as relayed for the configured TTL.
func (b *boltStore) MarkAnnotation(id string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := mustBucket(tx, annotationBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), encodeInt64(now.Add(b.annotationTTL).Unix()))
	})
}

// DeltaToken returns the saved token for feedID.
func (b *boltStore) DeltaToken(feedID string) (int64, error) {
	if b == nil || b.db == nil {
		return 0, nil
	}

	var token int64
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := mustBucket(tx, deltaTokenBucket)
		if err != nil {
			return err
		}
		if v := bucket.Get([]byte(feedID)); len(v) == int64ValueBytes {
			token = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return token, err
}

// SetDeltaToken saves token for feedID.
func (b *boltStore) SetDeltaToken(feedID string, token int64) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := mustBucket(tx, deltaTokenBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(feedID), encodeInt64(token))
	})
}

// maybeCleanupExpired removes expired annotation IDs on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := mustBucket(tx, annotationBucket)
		if err != nil {
			return err
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeUnix(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func mustBucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket missing", name)
	}
	return bucket, nil
}

func encodeInt64(v int64) []byte {
	buf := make([]byte, int64ValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

// decodeUnix decodes a stored unix timestamp; missing or malformed values report false.
func decodeUnix(value []byte) (time.Time, bool) {
	if len(value) != int64ValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
