// Package telemetry provides the SDK's own operational logging: a
// structured Logger every other package depends on through narrow
// interfaces, plus an optional SQLite sink for auditing SDK-internal
// events (session rotation, plugin failure, batch exhaustion) rather than
// the analytics events the SDK exists to capture.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/omnitrack/dbopen"
	"github.com/hazyhaar/omnitrack/idgen"
	_ "modernc.org/sqlite"
)

// Logger is the structured logging surface used across the SDK. Every
// package that logs (identity, queue, transmit, tracker, hostbrowser)
// depends on its own minimal subset of this interface, so a
// caller can satisfy each with anything from a full *Logger down to a
// single-method fake in tests.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogLogger adapts log/slog to the Logger interface, the default wiring
// for every SDK component that doesn't receive an explicit override.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l, or slog.Default() if l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// OperationalEvent is a record of something happening to the SDK itself,
// as distinct from an analytics event captured from the host page.
type OperationalEvent struct {
	Kind      EventKind
	ClientID  string
	SessionID string
	Detail    string
	Success   bool
}

// EventKind discriminates the SDK-internal events AuditSink records.
type EventKind string

const (
	EventSessionRotated EventKind = "session_rotated"
	EventPluginFailure  EventKind = "plugin_failure"
	EventBatchExhausted EventKind = "batch_exhausted"
)

// AuditSink persists OperationalEvents to SQLite and manages retention,
// adapted from observability's business-event pattern to the three event
// kinds this SDK's own lifecycle produces.
type AuditSink struct {
	db    *sql.DB
	newID idgen.Generator
}

// AuditSinkOption configures an AuditSink.
type AuditSinkOption func(*AuditSink)

// WithEventIDGenerator overrides the default id generator.
func WithEventIDGenerator(gen idgen.Generator) AuditSinkOption {
	return func(s *AuditSink) { s.newID = gen }
}

// NewAuditSink constructs an AuditSink over db, creating its table if
// necessary.
func NewAuditSink(db *sql.DB, opts ...AuditSinkOption) (*AuditSink, error) {
	s := &AuditSink{db: db, newID: idgen.Prefixed("aud_", idgen.Default)}
	for _, o := range opts {
		o(s)
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sdk_audit_events (
		event_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		client_id TEXT,
		session_id TEXT,
		detail TEXT,
		success INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create audit table: %w", err)
	}
	return s, nil
}

// Record writes e. Non-blocking in spirit: a failing audit store is
// logged but never returned to the caller's own operation.
func (s *AuditSink) Record(ctx context.Context, e OperationalEvent, logger Logger) {
	id := s.newID()
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO sdk_audit_events (
			event_id, kind, client_id, session_id, detail, success, created_at
		) VALUES (?,?,?,?,?,?,?)`,
		id, string(e.Kind), e.ClientID, e.SessionID, e.Detail, e.Success, time.Now().Unix())
	if err != nil {
		logger.Error("telemetry: audit record failed", "error", err, "kind", e.Kind)
	}
}

// RetentionConfig specifies how many days of audit rows to keep. Zero
// disables cleanup.
type RetentionConfig struct {
	Days           int
	RunVacuumAfter bool
}

// Cleanup deletes audit rows older than cfg.Days.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	if cfg.Days <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(cfg.Days*86400)
	if _, err := dbopen.Exec(ctx, db, `DELETE FROM sdk_audit_events WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("telemetry: cleanup: %w", err)
	}
	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("telemetry: vacuum: %w", err)
		}
	}
	return nil
}
