// Package sqlite provides the console's default durable key/value store on a local sqlite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Pure-Go driver registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/socialadify/adify-console/internal/migrate"
)

// DriverName is the database/sql driver used for the local store.
const DriverName = "sqlite"

// KVStore persists string values in the kv table.
type KVStore struct {
	db *sql.DB
}

// NewKVStore wraps an already-migrated database handle.
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

// Open opens (or creates) the sqlite file at path, applies migrations and returns the store
// together with the handle so the caller can close it.
func Open(ctx context.Context, path string) (*KVStore, *sql.DB, error) {
	db, err := sql.Open(DriverName, dsn(path))
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("ping sqlite %s: %w", path, err), db.Close())
	}
	if err := migrate.Run(ctx, db); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("migrate sqlite %s: %w", path, err), db.Close())
	}
	return NewKVStore(db), db, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("set kv[%s]: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete kv[%s]: %w", key, err)
	}
	return nil
}
