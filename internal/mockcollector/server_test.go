package mockcollector

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/omnitrack/event"
)

func TestHandleEvents_AcceptsValidBatch(t *testing.T) {
	s := NewServer(":0", nil)
	batch := event.Batch{
		BatchID:   "batch-1",
		Timestamp: 1000,
		Events: []event.Event{
			{EventID: "e1", ProjectID: "p1", ClientID: "c1", SessionID: "s1", Type: event.TypeCustom, Timestamp: 1000},
		},
	}
	body, _ := json.Marshal(batch)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(s.Batches()) != 1 {
		t.Fatalf("expected 1 stored batch, got %d", len(s.Batches()))
	}
}

func TestHandleEvents_RejectsInvalidBatch(t *testing.T) {
	s := NewServer(":0", nil)
	batch := event.Batch{BatchID: "batch-1", Timestamp: 1000, Events: []event.Event{{}}}
	body, _ := json.Marshal(batch)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(s.Batches()) != 0 {
		t.Fatalf("expected 0 stored batches, got %d", len(s.Batches()))
	}
}

func TestHandleHealthz(t *testing.T) {
	s := NewServer(":0", nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimiter_BlocksOverThreshold(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 2})
	if !rl.allow("1.2.3.4") {
		t.Fatal("expected first request to be allowed")
	}
	if !rl.allow("1.2.3.4") {
		t.Fatal("expected second request to be allowed")
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("expected third request to be blocked")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("expected a different IP to have its own bucket")
	}
}
