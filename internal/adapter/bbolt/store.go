// Package bbolt persists namespace dictionaries and cached weather responses
// in an embedded bbolt database. Each concern has its own top-level bucket
// holding JSON values.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// Bucket keys
var (
	bucketDictionaries = []byte("dictionaries")
	bucketWeather      = []byte("weather")
)

// Store implements domain.Persister and the weather cache backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDictionaries, bucketWeather} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDictionary persists one namespace's dictionary.
func (s *Store) SaveDictionary(_ context.Context, namespace string, d *domain.Dictionary) error {
	if d == nil {
		return fmt.Errorf("nil dictionary")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dictionary %q: %w", namespace, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDictionaries).Put([]byte(namespace), data)
	})
}

// LoadDictionaries returns every persisted dictionary keyed by namespace.
func (s *Store) LoadDictionaries(_ context.Context) (map[string]*domain.Dictionary, error) {
	raw := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDictionaries).ForEach(func(k, v []byte) error {
			// bbolt slices are only valid within the transaction
			raw[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read dictionaries: %w", err)
	}

	dicts := make(map[string]*domain.Dictionary, len(raw))
	for ns, data := range raw {
		d := domain.NewDictionary()
		if err := json.Unmarshal(data, d); err != nil {
			return nil, fmt.Errorf("unmarshal dictionary %q: %w", ns, err)
		}
		dicts[ns] = d
	}
	return dicts, nil
}

// GetCached returns the cached weather payload stored under key.
func (s *Store) GetCached(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketWeather).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read cache %q: %w", key, err)
	}
	return value, value != nil, nil
}

// PutCached stores a weather payload under key, replacing any previous value.
func (s *Store) PutCached(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWeather).Put([]byte(key), value)
	})
}
