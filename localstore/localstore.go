// Package localstore provides the storefront's persistence layer: a small
// key-value store backed by a single local SQLite file. It plays the role the
// browser's localStorage played in the original storefront, which is why the
// API is a flat Get/Put/Delete over string keys with JSON helpers on top.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
	"go.uber.org/zap"

	"github.com/user/lojinha-go/apperror"
)

// Well-known keys. The names are kept from the original storefront so a dump of
// the store reads the same as a dump of the browser's localStorage did.
const (
	KeyTheme     = "loja-escolar-theme"
	KeySortPref  = "loja-escolar-sort"
	KeyCart      = "loja-escolar-cart"
	KeyMockUsers = "mock_users"
	KeyAuthToken = "auth_token"
	KeyAuthUser  = "auth_user"

	// AvatarKeyPrefix namespaces mock-uploaded avatar blobs, one key per filename.
	AvatarKeyPrefix = "avatar_"
)

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("localstore: key not found")

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// Store is a key-value store over a local SQLite file.
// SQLite serializes writers itself, so Store is safe for concurrent use.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the store at the given path and bootstraps
// the schema. Use ":memory:" for an ephemeral store in tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, apperror.NewStorageError("failed to open local store", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperror.NewStorageError("failed to bootstrap local store schema", err)
	}
	logger.Info("local store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value for key, or ErrKeyNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", apperror.NewStorageError("failed to read from local store", err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return apperror.NewStorageError("failed to write to local store", err)
	}
	return nil
}

// Delete removes key from the store. Deleting a missing key is not an error,
// matching localStorage.removeItem semantics.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return apperror.NewStorageError("failed to delete from local store", err)
	}
	return nil
}

// GetJSON unmarshals the value stored under key into out.
// Returns ErrKeyNotFound when the key is absent.
func (s *Store) GetJSON(key string, out interface{}) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperror.NewStorageError("corrupt value in local store for key "+key, err)
	}
	return nil
}

// PutJSON marshals v and stores it under key.
func (s *Store) PutJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperror.NewStorageError("failed to encode value for key "+key, err)
	}
	return s.Put(key, string(raw))
}
