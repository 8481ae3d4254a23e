// Package store keeps a local library of named macros so they can be edited
// and re-uploaded without re-recording. The device stores only the compiled
// step rows; names and structure live here, in a bbolt file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/dartctl/dartctl/internal/proto"
)

var bucketMacros = []byte("macros")

// ErrNotFound means no macro is stored under the requested name.
var ErrNotFound = errors.New("store: macro not found")

// Store is an open macro library.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the library at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMacros)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveMacro stores m under name, replacing any previous entry.
func (s *Store) SaveMacro(name string, m proto.Macro) error {
	if name == "" {
		return errors.New("store: macro name must not be empty")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMacros).Put([]byte(name), data)
	})
}

// Macro loads the macro stored under name.
func (s *Store) Macro(name string) (proto.Macro, error) {
	var m proto.Macro
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMacros).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return json.Unmarshal(data, &m)
	})
	return m, err
}

// Names lists all stored macro names in key order.
func (s *Store) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMacros).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// DeleteMacro removes the macro stored under name. Deleting a name that
// does not exist is not an error.
func (s *Store) DeleteMacro(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMacros).Delete([]byte(name))
	})
}
