package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/omnitrack/dbopen"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore is a persistent key-value Store backed by SQLite, the
// systems-language analogue of browser local storage: a single small
// table, opened once per process, safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the key-value database at path.
func OpenSQLiteStore(path string, opts ...dbopen.Option) (*SQLiteStore, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(kvSchema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("identity: open sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes key via dbopen.Exec, which retries automatically if a
// concurrent session rotation or audit write holds the database busy.
func (s *SQLiteStore) Set(key, value string) error {
	_, err := dbopen.Exec(context.Background(), s.db, `
		INSERT INTO kv_store (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := dbopen.Exec(context.Background(), s.db, `DELETE FROM kv_store WHERE key = ?`, key)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
