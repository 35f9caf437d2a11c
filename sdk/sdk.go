// Package sdk wires omnitrack's components into a single running
// instance: configuration, identity, transmitters, the batching queue,
// the tracker, and the built-in capture plugins, in the order
// domwatch.New/Watcher.Start establishes for its own subsystem wiring.
package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/hazyhaar/omnitrack/config"
	"github.com/hazyhaar/omnitrack/hostbrowser"
	"github.com/hazyhaar/omnitrack/identity"
	"github.com/hazyhaar/omnitrack/plugin"
	"github.com/hazyhaar/omnitrack/queue"
	"github.com/hazyhaar/omnitrack/telemetry"
	"github.com/hazyhaar/omnitrack/tracker"
	"github.com/hazyhaar/omnitrack/transmit"
)

// Options controls Initialize beyond what config.Config already covers:
// the host page driver and any extra plugins the caller wants run.
type Options struct {
	Config   config.Config
	Page     tracker.Page
	Store    identity.Store
	Logger   telemetry.Logger
	Plugins  []plugin.Plugin

	// DisableBuiltinPlugins skips auto-registering the page-view/click/
	// snapshot plugins omnitrack otherwise wires in by default.
	DisableBuiltinPlugins bool
}

// Container holds a fully wired omnitrack instance.
type Container struct {
	Config   *config.Config
	Identity *identity.Manager
	Queue    *queue.Queue
	Tracker  *tracker.Tracker
	Registry *plugin.Registry
	Logger   telemetry.Logger

	destroyOnce sync.Once
}

var (
	instanceMu sync.Mutex
	instance   *Container
)

// Initialize validates opts, wires every component, starts the tracker,
// and registers it as the package singleton. Calling Initialize while an
// instance is already running returns an error — call Destroy first.
func Initialize(opts Options) (*Container, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return nil, fmt.Errorf("sdk: already initialized; call Destroy first")
	}

	cfg, err := config.New(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("sdk: invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewSlogLogger(nil)
	}

	store := opts.Store
	if store == nil {
		// A real CDP-driven page gets the browser's own localStorage as
		// its identity store, the same persistence a JS snippet would
		// use; everything else (no page, or a test fake) falls through
		// to identity.Manager's own in-memory default.
		if hp, ok := opts.Page.(*hostbrowser.Page); ok {
			store = hostbrowser.NewLocalStorage(hp)
		}
	}

	idMgr := identity.NewManager(store, identity.Config{
		SessionKey: cfg.SessionStorageKey,
		Logger:     logger,
	})

	transmitters := buildTransmitters(cfg, logger)
	q := queue.New(queue.Config{
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Transmitters: transmitters,
		Logger:       logger,
	})

	trk := tracker.New(tracker.Config{
		Config:   cfg,
		Identity: idMgr,
		Queue:    q,
		Page:     opts.Page,
		Logger:   logger,
	})

	registry := plugin.New(plugin.WithLogger(logger))
	if !opts.DisableBuiltinPlugins {
		for _, p := range []plugin.Plugin{
			plugin.NewPageViewPlugin(),
			plugin.NewClickPlugin(),
			plugin.NewSnapshotPlugin(),
		} {
			if err := registry.Register(p); err != nil {
				q.Destroy()
				return nil, fmt.Errorf("sdk: register builtin plugin: %w", err)
			}
		}
	}
	for _, p := range opts.Plugins {
		if err := registry.Register(p); err != nil {
			q.Destroy()
			return nil, fmt.Errorf("sdk: register plugin %q: %w", p.Name(), err)
		}
	}

	trk.Start()
	registry.Initialize(context.Background(), plugin.Context{
		Tracker: trk,
		Config:  cfg,
		Logger:  logger,
	})

	c := &Container{
		Config:   cfg,
		Identity: idMgr,
		Queue:    q,
		Tracker:  trk,
		Registry: registry,
		Logger:   logger,
	}
	instance = c
	return c, nil
}

// Instance returns the current singleton, or nil if none is initialized.
func Instance() *Container {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

// Destroy tears down the singleton: plugins, then the tracker (which
// detaches auto-capture and final-flushes the queue). Safe to call more
// than once.
func Destroy() {
	instanceMu.Lock()
	c := instance
	instance = nil
	instanceMu.Unlock()
	if c != nil {
		c.Destroy()
	}
}

// Destroy tears down this specific container without touching the
// package singleton, for callers running more than one instance in a
// test process.
func (c *Container) Destroy() {
	c.destroyOnce.Do(func() {
		c.Registry.Destroy(context.Background())
		c.Tracker.Destroy()
	})
}

func buildTransmitters(cfg *config.Config, logger telemetry.Logger) []transmit.Transmitter {
	var primaryOpts []transmit.PrimaryOption
	if len(cfg.AuthSecret) > 0 {
		primaryOpts = append(primaryOpts, transmit.WithPrimaryAuthSecret(cfg.AuthSecret))
	}
	primaryOpts = append(primaryOpts, transmit.WithPrimaryLogger(logger))

	primary := transmit.NewCircuitBreaker(
		transmit.NewPrimary(cfg.Endpoint, cfg.ProjectID, primaryOpts...),
	)
	fallback := transmit.NewFallback(cfg.Endpoint, transmit.WithFallbackLogger(logger))

	return []transmit.Transmitter{primary, fallback}
}
