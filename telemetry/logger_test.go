package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/omnitrack/dbopen"
)

type captureLogger struct {
	errors []string
}

func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(string, ...any)  {}
func (c *captureLogger) Warn(string, ...any)  {}
func (c *captureLogger) Error(msg string, args ...any) {
	c.errors = append(c.errors, msg)
}

func TestAuditSink_RecordAndCleanup(t *testing.T) {
	db := dbopen.OpenMemory(t)
	sink, err := NewAuditSink(db)
	if err != nil {
		t.Fatalf("NewAuditSink: %v", err)
	}
	logger := &captureLogger{}

	sink.Record(context.Background(), OperationalEvent{
		Kind:      EventSessionRotated,
		ClientID:  "client-1",
		SessionID: "session-1",
		Success:   true,
	}, logger)

	if len(logger.errors) != 0 {
		t.Fatalf("unexpected errors recording: %v", logger.errors)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sdk_audit_events`).Scan(&count); err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	if err := Cleanup(context.Background(), db, RetentionConfig{Days: 0}); err != nil {
		t.Fatalf("cleanup with days=0 should no-op: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM sdk_audit_events`).Scan(&count); err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected row to survive days=0 cleanup, got %d", count)
	}

	// Force the row to look old, then clean it up for real.
	if _, err := db.Exec(`UPDATE sdk_audit_events SET created_at = ?`, time.Now().Add(-48*time.Hour).Unix()); err != nil {
		t.Fatalf("backdate row: %v", err)
	}
	if err := Cleanup(context.Background(), db, RetentionConfig{Days: 1}); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM sdk_audit_events`).Scan(&count); err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected row to be cleaned up, got %d", count)
	}
}

func TestSlogLogger_SatisfiesLogger(t *testing.T) {
	var _ Logger = NewSlogLogger(nil)
}
