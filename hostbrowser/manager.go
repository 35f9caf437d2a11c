// Package hostbrowser drives a real Chrome tab via CDP (go-rod) and
// exposes it as a tracker.Page: URL/title/DOM accessors plus delegated
// click, SPA-navigation, and mutation signals. It is the systems-language
// analogue of the in-page browser APIs the rest of the SDK is written
// against — the only package that talks to an actual browser process.
package hostbrowser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Logger is the minimal logging surface Manager and Page use.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config configures the Chrome process Manager owns.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty means launch a local headless Chrome via launcher.
	RemoteURL string

	// MemoryLimit bounds the JS heap before the browser is recycled. Default 1GB.
	MemoryLimit int64

	// RecycleInterval bounds the browser's lifetime regardless of memory use.
	// Zero or negative selects the default of 4h.
	RecycleInterval time.Duration

	Logger Logger
}

func (c *Config) defaults() {
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 1 << 30
	}
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

// Manager owns the Chrome process (or remote connection) a Page is opened
// against. Unlike a scraping fleet, omnitrack instruments a single page at
// a time, so Manager carries no multi-tab pool.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	startAt time.Time
	closed  bool
}

// NewManager constructs a Manager. Call Start to launch or connect to Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches (or connects to) Chrome and begins memory/lifetime
// monitoring in the background.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("hostbrowser: manager is closed")
	}

	b, err := m.launch()
	if err != nil {
		return nil, err
	}
	m.browser = b
	m.startAt = time.Now()

	go m.monitorLoop(ctx)
	return b, nil
}

// Browser returns the current Rod browser handle.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Close shuts Chrome down.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanupLocked()
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger
	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("hostbrowser: connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("hostbrowser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("hostbrowser: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("hostbrowser: connect: %w", err)
	}
	return b, nil
}

func (m *Manager) cleanupLocked() error {
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}

func (m *Manager) recycle(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("hostbrowser: manager is closed")
	}
	m.cfg.Logger.Info("hostbrowser: recycling chrome", "uptime", time.Since(m.startAt))
	if err := m.cleanupLocked(); err != nil {
		m.cfg.Logger.Warn("hostbrowser: cleanup during recycle", "error", err)
	}
	b, err := m.launch()
	if err != nil {
		return fmt.Errorf("hostbrowser: relaunch: %w", err)
	}
	m.browser = b
	m.startAt = time.Now()
	return nil
}

func (m *Manager) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			closed, startAt, b := m.closed, m.startAt, m.browser
			m.mu.RUnlock()
			if closed || b == nil {
				return
			}
			if m.cfg.RecycleInterval > 0 && time.Since(startAt) > m.cfg.RecycleInterval {
				if err := m.recycle(ctx); err != nil {
					m.cfg.Logger.Error("hostbrowser: recycle failed", "error", err)
				}
				continue
			}
			if used, err := jsHeapUsage(b); err == nil && used > m.cfg.MemoryLimit {
				m.cfg.Logger.Info("hostbrowser: memory limit exceeded", "used", used, "limit", m.cfg.MemoryLimit)
				if err := m.recycle(ctx); err != nil {
					m.cfg.Logger.Error("hostbrowser: recycle failed", "error", err)
				}
			}
		}
	}
}

func jsHeapUsage(b *rod.Browser) (int64, error) {
	pages, err := b.Pages()
	if err != nil || len(pages) == 0 {
		return 0, fmt.Errorf("hostbrowser: no pages for heap check")
	}
	res, err := pages[0].Eval(`() => performance.memory ? performance.memory.usedJSHeapSize : 0`)
	if err != nil {
		return 0, err
	}
	return int64(res.Value.Int()), nil
}
