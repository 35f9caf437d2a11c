// Package identity manages the stable client and session identifiers that
// every captured event carries, persisting them through a pluggable Store
// and rotating sessions on inactivity or explicit request.
package identity

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/hazyhaar/omnitrack/idgen"
)

// DefaultInactivityTimeout is a conservative value for
// Config.InactivityTimeout. NewManager does not apply it: a zero
// InactivityTimeout leaves inactivity-based rotation disabled.
const DefaultInactivityTimeout = 30 * time.Minute

const clientIDKey = "omni_client_id"

// Logger is the minimal logging surface Manager needs for debug-level
// storage-failure reporting. telemetry.Logger satisfies this.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Config controls Manager behavior.
type Config struct {
	// SessionKey is the storage key under which the session record is
	// persisted. Defaults to "omni_session_id".
	SessionKey string
	// InactivityTimeout is the window after which a session with no
	// recorded activity is considered expired and rotated. Zero disables
	// inactivity-based rotation.
	InactivityTimeout time.Duration
	// OnExpire, if set, is invoked (with the expired session id) whenever
	// CheckSessionExpired triggers a rotation.
	OnExpire func(expiredSessionID string)
	Logger   Logger
}

type sessionRecord struct {
	ID             string `json:"id"`
	StartedAt      int64  `json:"startedAt"`
	LastActivityAt int64  `json:"lastActivityAt"`
}

// Manager owns the client id and the current session record, persisting
// both through Store and falling back silently to in-memory state when
// the store is unavailable or errors.
type Manager struct {
	store   Store
	cfg     Config
	gen     idgen.Generator
	now     func() time.Time

	mu      sync.Mutex
	session sessionRecord
	client  string
}

// NewManager constructs a Manager, loading (or initializing) session and
// client state from store. store may be nil, in which case an in-memory
// fallback is used directly.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.SessionKey == "" {
		cfg.SessionKey = "omni_session_id"
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if store == nil {
		store = NewMemoryStore()
	}

	m := &Manager{
		store: store,
		cfg:   cfg,
		gen:   idgen.SessionID(),
		now:   time.Now,
	}
	m.loadClientID()
	m.loadOrStartSession()
	return m
}

func (m *Manager) loadClientID() {
	value, ok, err := m.store.Get(clientIDKey)
	if err != nil {
		m.cfg.Logger.Debug("identity: client id read failed, falling back", "err", err)
	}
	if ok && value != "" {
		m.client = value
		return
	}
	m.client = "anon-" + idgen.New()
	if err := m.store.Set(clientIDKey, m.client); err != nil {
		m.cfg.Logger.Debug("identity: client id persist failed", "err", err)
	}
}

func (m *Manager) loadOrStartSession() {
	raw, ok, err := m.store.Get(m.cfg.SessionKey)
	if err != nil {
		m.cfg.Logger.Debug("identity: session read failed, starting fresh", "err", err)
	}
	if ok {
		var rec sessionRecord
		if jsonErr := json.Unmarshal([]byte(raw), &rec); jsonErr == nil && rec.ID != "" {
			m.session = rec
			if m.sessionExpiredLocked() {
				m.rotateLocked()
			}
			return
		}
	}
	m.rotateLocked()
}

func (m *Manager) sessionExpiredLocked() bool {
	if m.cfg.InactivityTimeout <= 0 {
		return false
	}
	last := time.UnixMilli(m.session.LastActivityAt)
	return m.now().Sub(last) > m.cfg.InactivityTimeout
}

func (m *Manager) rotateLocked() {
	now := m.now().UnixMilli()
	m.session = sessionRecord{
		ID:             m.gen(),
		StartedAt:      now,
		LastActivityAt: now,
	}
	m.persistSessionLocked()
}

func (m *Manager) persistSessionLocked() {
	data, err := json.Marshal(m.session)
	if err != nil {
		m.cfg.Logger.Debug("identity: session encode failed", "err", err)
		return
	}
	if err := m.store.Set(m.cfg.SessionKey, string(data)); err != nil {
		m.cfg.Logger.Debug("identity: session persist failed", "err", err)
	}
}

// GetSessionID returns the current session identifier.
func (m *Manager) GetSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ID
}

// StartNewSession generates, persists, and returns a fresh session id.
func (m *Manager) StartNewSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateLocked()
	return m.session.ID
}

// ClearSession removes the stored session record. A subsequent
// GetSessionID call on a fresh Manager would generate a new one; this
// Manager instance retains its in-memory id until StartNewSession or
// CheckSessionExpired runs.
func (m *Manager) ClearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(m.cfg.SessionKey); err != nil {
		m.cfg.Logger.Debug("identity: session clear failed", "err", err)
	}
}

// UpdateActivity refreshes the last-activity timestamp for the current
// session and persists it.
func (m *Manager) UpdateActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.LastActivityAt = m.now().UnixMilli()
	m.persistSessionLocked()
}

// CheckSessionExpired inspects the inactivity window and rotates the
// session if it has expired, invoking cfg.OnExpire with the old id.
// Called opportunistically by the tracker on each event.
func (m *Manager) CheckSessionExpired() {
	m.mu.Lock()
	if !m.sessionExpiredLocked() {
		m.mu.Unlock()
		return
	}
	expired := m.session.ID
	m.rotateLocked()
	m.mu.Unlock()

	if m.cfg.OnExpire != nil {
		m.cfg.OnExpire(expired)
	}
}

// ClientID returns the stable client identifier.
func (m *Manager) ClientID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// SetClientID overrides the client id, persisting the new value.
func (m *Manager) SetClientID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = id
	if err := m.store.Set(clientIDKey, id); err != nil {
		m.cfg.Logger.Debug("identity: client id persist failed", "err", err)
	}
}
