// Package event defines the wire-level data model: the discriminated Event
// union and the Batch that groups events for a single transmission attempt.
package event

import "fmt"

// Type discriminates the kind of event carried by an Event record.
type Type string

const (
	TypePageView Type = "pageview"
	TypeClick    Type = "click"
	TypeCustom   Type = "custom"
	TypeSnapshot Type = "snapshot"
)

// SnapshotKind distinguishes why a snapshot event was captured.
type SnapshotKind string

const (
	SnapshotInitial  SnapshotKind = "initial"
	SnapshotMutation SnapshotKind = "mutation"
	SnapshotPeriodic SnapshotKind = "periodic"
)

// ScreenClass is a coarse viewport classification.
type ScreenClass string

const (
	ScreenMobile  ScreenClass = "mobile"
	ScreenTablet  ScreenClass = "tablet"
	ScreenDesktop ScreenClass = "desktop"
)

// Compression describes how a snapshot's DOM payload was encoded.
type Compression string

const (
	CompressionGzip    Compression = "gzip"
	CompressionDeflate Compression = "deflate"
	CompressionNone    Compression = "none"
)

// MaskMetadata records which selectors were masked or blocked during
// snapshot sanitization.
type MaskMetadata struct {
	MaskedSelectors []string `json:"maskedSelectors"`
	BlockedCount    int      `json:"blockedCount"`
}

// Event is the base record shared by every captured event, with
// variant-specific fields tagged omitempty.
type Event struct {
	EventID   string         `json:"eventId"`
	ProjectID string         `json:"projectId"`
	ClientID  string         `json:"clientId"`
	SessionID string         `json:"sessionId"`
	UserID    *string        `json:"userId,omitempty"`
	Type      Type           `json:"type"`
	Timestamp int64          `json:"timestamp"`
	URL       string         `json:"url"`
	Referrer  string         `json:"referrer,omitempty"`

	PageWidth      int `json:"pageWidth"`
	PageHeight     int `json:"pageHeight"`
	ViewportWidth  int `json:"viewportWidth"`
	ViewportHeight int `json:"viewportHeight"`

	Properties map[string]any `json:"properties,omitempty"`

	// Page-view fields.
	Title         string `json:"title,omitempty"`
	Route         string `json:"route,omitempty"`
	IsInitialLoad bool   `json:"isInitialLoad,omitempty"`

	// Click fields.
	X            float64 `json:"x,omitempty"`
	Y            float64 `json:"y,omitempty"`
	Selector     string  `json:"selector,omitempty"`
	XPath        string  `json:"xpath,omitempty"`
	TagName      string  `json:"tagName,omitempty"`
	TextHash     string  `json:"textHash,omitempty"`

	// Custom fields.
	Name string `json:"name,omitempty"`

	// Snapshot fields.
	SnapshotKind      SnapshotKind  `json:"snapshotKind,omitempty"`
	ScreenClass       ScreenClass   `json:"screenClass,omitempty"`
	LayoutHash        string        `json:"layoutHash,omitempty"`
	DOM               string        `json:"dom,omitempty"`
	Compression       Compression   `json:"compression,omitempty"`
	OriginalSize      int           `json:"originalSize,omitempty"`
	CompressedSize    int           `json:"compressedSize,omitempty"`
	Truncated         bool          `json:"truncated,omitempty"`
	MaskMetadata      *MaskMetadata `json:"maskMetadata,omitempty"`
	SchemaVersion     string        `json:"schemaVersion,omitempty"`
}

// Batch is an ordered, immutable-after-construction group of events
// dispatched as a single network request.
type Batch struct {
	BatchID   string  `json:"batchId"`
	Timestamp int64   `json:"timestamp"`
	Events    []Event `json:"events"`
}

// Validate checks that an event carries the identity fields the wire
// contract requires. It is used by test/dev ingestion infrastructure
// (internal/mockcollector); the tracker itself never rejects its own
// events, since it is always the one that set these fields.
func Validate(e Event) error {
	if e.EventID == "" {
		return fmt.Errorf("event: missing eventId")
	}
	if e.ProjectID == "" {
		return fmt.Errorf("event: missing projectId")
	}
	if e.ClientID == "" {
		return fmt.Errorf("event: missing clientId")
	}
	if e.SessionID == "" {
		return fmt.Errorf("event: missing sessionId")
	}
	switch e.Type {
	case TypePageView, TypeClick, TypeCustom, TypeSnapshot:
	default:
		return fmt.Errorf("event: unknown type %q", e.Type)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("event: missing timestamp")
	}
	return nil
}

// ValidateBatch validates every event in b and the batch envelope itself.
func ValidateBatch(b Batch) error {
	if b.BatchID == "" {
		return fmt.Errorf("event: missing batchId")
	}
	if b.Timestamp <= 0 {
		return fmt.Errorf("event: missing batch timestamp")
	}
	for i, e := range b.Events {
		if err := Validate(e); err != nil {
			return fmt.Errorf("event: batch index %d: %w", i, err)
		}
	}
	return nil
}
