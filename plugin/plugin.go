// Package plugin implements the tracker's lifecycle registry for
// user-supplied extensions: a plugin declares a unique name and version,
// and the registry runs init hooks in registration order and destroy hooks
// in reverse order, isolating one plugin's failure from the rest — the same
// "a name maps to a pluggable behavior, failures are isolated per name"
// shape as a service router, adapted from dispatching calls to running
// lifecycle hooks.
package plugin

import "context"

// Plugin is a named, versioned extension with an async init and an
// optional async destroy.
type Plugin interface {
	Name() string
	Version() string
	Init(ctx context.Context, pctx Context) error
	Destroy(ctx context.Context) error
}

// NoopDestroy can be embedded by a Plugin that has nothing to clean up,
// satisfying the interface without an explicit Destroy method.
type NoopDestroy struct{}

func (NoopDestroy) Destroy(context.Context) error { return nil }
