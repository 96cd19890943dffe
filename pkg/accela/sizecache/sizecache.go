// Package sizecache caches computed game-directory sizes in a badger store.
// Directory-size walks over large game trees dominate scan time; the cache
// keys sizes by game path and invalidates on manifest modification time.
// All cache failures are best-effort: callers fall back to a fresh walk.
package sizecache

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no entry exists for a game path.
var ErrNotFound = errors.New("size cache entry not found")

// Entry is one cached directory size.
type Entry struct {
	// SizeBytes is the recursive size of the game directory.
	SizeBytes int64 `json:"size_bytes"`

	// ManifestMtime is the UnixNano modification time of the game's
	// manifest when the size was computed. A differing mtime invalidates
	// the entry.
	ManifestMtime int64 `json:"manifest_mtime"`
}

// Store wraps badger for size-cache operations.
type Store struct {
	db *badger.DB
}

// Open opens or creates a size cache at the given path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the cached entry for a game path.
func (s *Store) Get(gamePath string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(gamePath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores the entry for a game path.
func (s *Store) Put(gamePath string, entry *Entry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(gamePath), value)
	})
}

// Delete removes the entry for a game path.
func (s *Store) Delete(gamePath string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(gamePath))
	})
}
