package plugin

import (
	"context"

	"github.com/hazyhaar/omnitrack/config"
)

// TrackerAPI is the narrow surface a plugin sees of the tracker. It is an
// interface rather than a concrete *tracker.Tracker so this package never
// imports tracker: the tracker constructs a Registry and hands itself in
// as a TrackerAPI, the same direction of dependency a router takes on its
// registered handlers rather than the other way around.
type TrackerAPI interface {
	EnablePageViewCapture(ctx context.Context) error
	DisablePageViewCapture() error
	EnableClickCapture(ctx context.Context) error
	DisableClickCapture() error
	EnableSnapshotCapture(ctx context.Context) error
	DisableSnapshotCapture() error
}

// Logger is the minimal logging surface a plugin's Init/Destroy can use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Context is handed to every plugin's Init/Destroy. It is the only
// privileged access a plugin gets — built-ins use exactly this surface,
// nothing more.
type Context struct {
	Tracker TrackerAPI
	Config  *config.Config
	Logger  Logger
}
