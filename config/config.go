// Package config holds omnitrack's initialization parameters: validation,
// defaults, and the mutable identity overrides (client id, user id) that
// the rest of the SDK reads from a single immutable-by-convention record.
package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/omnitrack/idgen"
)

// ErrInvalid is returned (wrapped) by New when required fields are missing.
var ErrInvalid = errors.New("config: invalid configuration")

const (
	DefaultBatchSize         = 50
	DefaultBatchTimeout      = 10 * time.Second
	DefaultSessionStorageKey = "omni_session_id"
)

// SnapshotConfig controls DOM snapshot capture (see domutil).
type SnapshotConfig struct {
	Enabled              bool          `yaml:"enabled"`
	CaptureInitial       bool          `yaml:"captureInitial"`
	CaptureMutations     bool          `yaml:"captureMutations"`
	MutationThrottle     time.Duration `yaml:"mutationThrottleMs"`
	CapturePeriodic      bool          `yaml:"capturePeriodic"`
	PeriodicInterval     time.Duration `yaml:"periodicIntervalMs"`
	MaxSnapshotSizeBytes int           `yaml:"maxSnapshotSizeBytes"`
}

// PrivacyConfig controls DOM sanitization/masking.
type PrivacyConfig struct {
	BlockSelectors    []string `yaml:"blockSelectors"`
	MaskSelectors     []string `yaml:"maskSelectors"`
	DisableSnapshots  bool     `yaml:"disableSnapshots"`
	MaxNodeTextLength int      `yaml:"maxNodeTextLength"`
}

// Config is the validated, immutable (except for the two identity setters)
// initialization record for an omnitrack SDK instance.
type Config struct {
	ProjectID         string        `yaml:"projectId"`
	Endpoint          string        `yaml:"endpoint"`
	BatchSize         int           `yaml:"batchSize"`
	BatchTimeout      time.Duration `yaml:"batchTimeout"`
	Debug             bool          `yaml:"debug"`
	SessionStorageKey string        `yaml:"sessionStorageKey"`
	CaptureErrors     bool          `yaml:"captureErrors"`

	Snapshot SnapshotConfig `yaml:"snapshot"`
	Privacy  PrivacyConfig  `yaml:"privacy"`

	// AuthSecret, when set, is used by transmit.Primary to sign outgoing
	// batches with an HS256 JWT in the Authorization header.
	AuthSecret []byte `yaml:"-"`

	mu       sync.RWMutex
	clientID string
	userID   *string
}

// New validates opts and returns a Config with defaults applied.
// A copy is taken of opts so callers may discard their record afterwards.
func New(opts Config) (*Config, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalid)
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalid)
	}

	cfg := &Config{
		ProjectID:         opts.ProjectID,
		Endpoint:          opts.Endpoint,
		BatchSize:         opts.BatchSize,
		BatchTimeout:      opts.BatchTimeout,
		Debug:             opts.Debug,
		SessionStorageKey: opts.SessionStorageKey,
		CaptureErrors:     opts.CaptureErrors,
		Snapshot:          opts.Snapshot,
		Privacy:           opts.Privacy,
		AuthSecret:        opts.AuthSecret,
		clientID:          opts.clientID,
		userID:            opts.userID,
	}
	cfg.applyDefaults()

	if cfg.clientID == "" {
		cfg.clientID = "anon-" + idgen.New()
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.SessionStorageKey == "" {
		c.SessionStorageKey = DefaultSessionStorageKey
	}
	if c.Snapshot.MutationThrottle <= 0 {
		c.Snapshot.MutationThrottle = 3 * time.Second
	}
	if c.Snapshot.PeriodicInterval <= 0 {
		c.Snapshot.PeriodicInterval = 60 * time.Second
	}
	if c.Snapshot.MaxSnapshotSizeBytes <= 0 {
		c.Snapshot.MaxSnapshotSizeBytes = 512 * 1024
	}
	if c.Privacy.MaxNodeTextLength <= 0 {
		c.Privacy.MaxNodeTextLength = 200
	}
}

// ClientID returns the current client id.
func (c *Config) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

// SetClientID overrides the client id.
func (c *Config) SetClientID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientID = id
}

// UserID returns the current user id, or nil when unauthenticated.
func (c *Config) UserID() *string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// SetUserID overrides the user id. Pass nil to clear it.
func (c *Config) SetUserID(id *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

// LoadFile reads a YAML configuration file and returns a validated Config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw Config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return New(raw)
}
