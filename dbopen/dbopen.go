// Package dbopen opens the SQLite database backing identity.SQLiteStore
// and telemetry.AuditSink, and carries the one piece of defensive logic
// both stores need: retrying a write that lands on SQLITE_BUSY instead of
// failing it outright. Its surface is pared to what those two callers
// actually use — schema bootstrap, mkdir-on-demand, and busy-retry exec —
// not a general-purpose connection-options library.
//
// Pragmas applied on every Open:
//
//	foreign_keys = ON
//	journal_mode = WAL
//	busy_timeout = 10000 (or WithBusyTimeout)
//	synchronous  = NORMAL
//
// Usage:
//
//	import _ "modernc.org/sqlite"
//	db, err := dbopen.Open("omnitrack.db", dbopen.WithSchema(kvSchema))
//
// In tests:
//
//	db := dbopen.OpenMemory(t)
package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type config struct {
	busyTimeout int
	mkdirAll    bool
	schema      string
}

func defaults() config {
	return config{busyTimeout: 10_000}
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates the database path's parent directory before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithSchema queues inline SQL to run once, right after pragmas are
// applied. identity.SQLiteStore bootstraps its single small table this
// way (telemetry.AuditSink creates its own table in NewAuditSink); neither
// needs the multi-file schema loading a larger service would.
func WithSchema(s string) Option { return func(c *config) { c.schema = s } }

// Open opens the SQLite database at path with the pragmas
// identity.SQLiteStore and telemetry.AuditSink both need, then runs the
// schema supplied via WithSchema, if any.
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open: %w", err)
	}

	if err := applyPragmas(db, cfg.busyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.schema != "" {
		if _, err := db.Exec(cfg.schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: exec schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: ping: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing. It sets
// MaxOpenConns(1) so every query hits the same in-memory database (each
// connection to ":memory:" otherwise opens a fresh one), and registers
// t.Cleanup to close it.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func applyPragmas(db *sql.DB, busyTimeout int) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("dbopen: %s: %w", p, err)
		}
	}
	return nil
}

const maxRetries = 3

// IsBusy reports whether err indicates SQLite found the database busy —
// the one failure class identity.SQLiteStore and telemetry.AuditSink
// retry instead of surfacing straight to their own callers.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// Exec runs a single write statement, making up to 3 attempts with
// 100ms then 200ms backoff if it lands on SQLITE_BUSY. Both
// identity.SQLiteStore.Set/Delete and telemetry.AuditSink.Record/Cleanup
// only ever need one statement per call, so Exec — not a transaction
// helper — is the shape this package carries.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	for i := range maxRetries {
		result, err := db.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}
		if !IsBusy(err) || i == maxRetries-1 {
			return nil, err
		}
		if err := sleepCtx(ctx, time.Duration(100*(i+1))*time.Millisecond); err != nil {
			return nil, fmt.Errorf("dbopen: context cancelled during retry: %w", err)
		}
	}
	return nil, fmt.Errorf("dbopen: Exec: max retries exceeded")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
