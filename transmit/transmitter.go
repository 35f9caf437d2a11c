// Package transmit implements the pluggable delivery strategies a Queue
// uses to push a Batch to the ingestion endpoint: a retrying primary HTTP
// transmitter and an unload-safe fire-and-forget fallback.
package transmit

import (
	"context"

	"github.com/hazyhaar/omnitrack/event"
)

// Transmitter is a capability that can push a batch to the ingestion
// endpoint.
type Transmitter interface {
	// IsAvailable reports whether the underlying facility exists at all
	// (e.g. network access, an unload-safe send primitive), independent
	// of whether a given Send call will succeed.
	IsAvailable() bool
	// Send attempts delivery of batch, returning an error on any failure
	// category (Transient, Permanent) that the caller should treat as
	// "try the next transmitter".
	Send(ctx context.Context, batch event.Batch) error
	// Priority ranks transmitters for selection; larger is preferred.
	Priority() int
}

// Logger is the minimal logging surface transmitters use for warnings.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
