package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNew_RequiresProjectID(t *testing.T) {
	_, err := New(Config{Endpoint: "https://e/"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(Config{ProjectID: "p1"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg, err := New(Config{ProjectID: "p1", Endpoint: "https://e/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if cfg.BatchTimeout != DefaultBatchTimeout {
		t.Errorf("BatchTimeout = %v, want %v", cfg.BatchTimeout, DefaultBatchTimeout)
	}
	if cfg.SessionStorageKey != DefaultSessionStorageKey {
		t.Errorf("SessionStorageKey = %q, want %q", cfg.SessionStorageKey, DefaultSessionStorageKey)
	}
	if !strings.HasPrefix(cfg.ClientID(), "anon-") {
		t.Errorf("ClientID = %q, want anon- prefix", cfg.ClientID())
	}
	if cfg.Snapshot.MutationThrottle != 3*time.Second {
		t.Errorf("Snapshot.MutationThrottle = %v, want 3s", cfg.Snapshot.MutationThrottle)
	}
	if cfg.Privacy.MaxNodeTextLength != 200 {
		t.Errorf("Privacy.MaxNodeTextLength = %d, want 200", cfg.Privacy.MaxNodeTextLength)
	}
}

func TestNew_CustomClientID(t *testing.T) {
	cfg, err := New(Config{ProjectID: "p1", Endpoint: "https://e/", clientID: "custom-id"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.ClientID() != "custom-id" {
		t.Errorf("ClientID = %q, want custom-id", cfg.ClientID())
	}
}

func TestSetClientID(t *testing.T) {
	cfg, _ := New(Config{ProjectID: "p1", Endpoint: "https://e/"})
	cfg.SetClientID("new-id")
	if cfg.ClientID() != "new-id" {
		t.Errorf("ClientID = %q, want new-id", cfg.ClientID())
	}
}

func TestSetUserID(t *testing.T) {
	cfg, _ := New(Config{ProjectID: "p1", Endpoint: "https://e/"})
	if cfg.UserID() != nil {
		t.Fatalf("expected nil UserID by default")
	}
	uid := "u123"
	cfg.SetUserID(&uid)
	if cfg.UserID() == nil || *cfg.UserID() != "u123" {
		t.Errorf("UserID = %v, want u123", cfg.UserID())
	}
	cfg.SetUserID(nil)
	if cfg.UserID() != nil {
		t.Errorf("expected UserID cleared")
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile("/nonexistent/omnitrack.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
