package storage

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/srcview/internal/debuglog"
)

var (
	prefsBucket   = []byte("prefs")
	historyBucket = []byte("history")
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

// DefaultTimeout bounds how long NewStore waits for the database file lock.
const DefaultTimeout = 1 * time.Second

// NewStore opens or creates the database at dbPath. An optional timeout
// overrides DefaultTimeout.
func NewStore(dbPath string, timeout ...time.Duration) (*Store, error) {
	lockTimeout := DefaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		lockTimeout = timeout[0]
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{prefsBucket, historyBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Prefs exposes the string-keyed preference slots.
func (s *Store) Prefs() *Prefs {
	return &Prefs{db: s.db}
}

// Prefs is a flat string key/value view over the prefs bucket.
type Prefs struct {
	db *bolt.DB
}

// Get returns the stored value, or "" when the slot is empty or unreadable.
func (p *Prefs) Get(key string) string {
	var value string
	err := p.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(prefsBucket).Get([]byte(key)); data != nil {
			value = string(data)
		}
		return nil
	})
	if err != nil {
		debuglog.Warnf("reading pref %s: %v", key, err)
		return ""
	}
	return value
}

func (p *Prefs) Set(key, value string) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prefsBucket).Put([]byte(key), []byte(value))
	})
}

func (p *Prefs) Delete(key string) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(prefsBucket).Delete([]byte(key))
	})
}

// SearchID derives the stable record ID for a search location.
func SearchID(path string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(path)))[:16]
}

// SaveSearch records a search. Repeating a search bumps its count and time
// instead of adding a second record.
func (s *Store) SaveSearch(rec *SearchRecord) error {
	if rec.ID == "" {
		rec.ID = SearchID(rec.Path)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)
		if data := b.Get([]byte(rec.ID)); data != nil {
			var prev SearchRecord
			if err := json.Unmarshal(data, &prev); err == nil {
				rec.Count = prev.Count
			}
		}
		rec.Count++
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.ID), data)
	})
}

func (s *Store) GetSearch(id string) (*SearchRecord, error) {
	var rec SearchRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(historyBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("search %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecentSearches returns searches newest first. A limit of zero or less
// returns all of them.
func (s *Store) RecentSearches(limit int) ([]*SearchRecord, error) {
	var recs []*SearchRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(_ []byte, v []byte) error {
			var rec SearchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].SearchedAt.After(recs[j].SearchedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, err
}

// ClearHistory removes every recorded search and returns how many there were.
func (s *Store) ClearHistory() (int, error) {
	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		n = tx.Bucket(historyBucket).Stats().KeyN
		if err := tx.DeleteBucket(historyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(historyBucket)
		return err
	})
	return n, err
}
