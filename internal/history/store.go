package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pakd/internal/config"

	"go.etcd.io/bbolt"
)

const (
	bucketHistory = "history"
	bucketIndex   = "by_id"
)

// ErrNotFound is returned when no entry matches an id.
var ErrNotFound = errors.New("history entry not found")

// Store manages transaction history using BoltDB. Records are keyed by an
// insertion sequence so iteration order is chronological.
type Store struct {
	db         *bbolt.DB
	maxEntries int
}

// Open opens or creates the history database at the default location.
func Open(maxEntries int) (*Store, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return OpenAt(config.HistoryPath(), maxEntries)
}

// OpenAt opens or creates the history database at path. When maxEntries is
// positive the oldest records are evicted on insert beyond that size.
func OpenAt(path string, maxEntries int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketHistory)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketIndex)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Record saves a new history entry, evicting the oldest entries when the
// store is full.
func (s *Store) Record(entry *Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		index := tx.Bucket([]byte(bucketIndex))
		if bucket == nil || index == nil {
			return fmt.Errorf("history bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save entry: %w", err)
		}
		if err := index.Put([]byte(entry.ID), key); err != nil {
			return fmt.Errorf("failed to index entry: %w", err)
		}

		if s.maxEntries <= 0 {
			return nil
		}
		cursor := bucket.Cursor()
		count := 0
		for k, _ := cursor.First(); k != nil; k, _ = cursor.Next() {
			count++
		}
		excess := count - s.maxEntries
		for k, v := cursor.First(); k != nil && excess > 0; k, v = cursor.First() {
			if err := s.deleteLocked(bucket, index, k, v); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
}

func (s *Store) deleteLocked(bucket, index *bbolt.Bucket, k, v []byte) error {
	var e Entry
	if err := json.Unmarshal(v, &e); err == nil {
		if cur := index.Get([]byte(e.ID)); cur != nil && string(cur) == string(k) {
			if err := index.Delete([]byte(e.ID)); err != nil {
				return err
			}
		}
	}
	return bucket.Delete(k)
}

// List returns the most recent history entries, newest first.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()

		for k, v := cursor.Last(); k != nil && (limit <= 0 || len(entries) < limit); k, v = cursor.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // Skip malformed entries
			}
			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

// Get retrieves the entry for a transaction id.
func (s *Store) Get(id string) (*Entry, error) {
	var entry *Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(bucketIndex)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		v := tx.Bucket([]byte(bucketHistory)).Get(key)
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		entry = &e
		return nil
	})

	return entry, err
}

// Last returns the most recent entry, or nil when the store is empty.
func (s *Store) Last() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// Count returns the total number of entries.
func (s *Store) Count() (int, error) {
	var count int

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		if bucket == nil {
			return nil
		}

		count = bucket.Stats().KeyN
		return nil
	})

	return count, err
}

// Clear removes all history entries.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketHistory, bucketIndex} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Prune removes entries older than the given duration.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	var deleted int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketHistory))
		index := tx.Bucket([]byte(bucketIndex))
		if bucket == nil || index == nil {
			return nil
		}

		type kv struct{ k, v []byte }
		var toDelete []kv
		cursor := bucket.Cursor()

		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			if e.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, kv{append([]byte(nil), k...), append([]byte(nil), v...)})
			}
		}

		for _, item := range toDelete {
			if err := s.deleteLocked(bucket, index, item.k, item.v); err != nil {
				return err
			}
			deleted++
		}

		return nil
	})

	return deleted, err
}
