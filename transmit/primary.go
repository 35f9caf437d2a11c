package transmit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hazyhaar/omnitrack/event"
	"github.com/hazyhaar/omnitrack/wire"
)

const PriorityPrimary = 10

// batchClaims signs a batch id and project id into a short-lived HS256
// JWT carried in the Authorization header, when a signing secret is
// configured.
type batchClaims struct {
	jwt.RegisteredClaims
	ProjectID string `json:"projectId"`
	BatchID   string `json:"batchId"`
}

// Primary is the request/response transmitter: JSON POST over HTTP, with
// a configurable timeout and exponential-backoff retry budget.
type Primary struct {
	endpoint    string
	projectID   string
	client      *http.Client
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	authSecret  []byte
	logger      Logger
}

// PrimaryOption configures a Primary transmitter.
type PrimaryOption func(*Primary)

func WithPrimaryTimeout(d time.Duration) PrimaryOption {
	return func(p *Primary) { p.timeout = d }
}

func WithPrimaryRetries(n int) PrimaryOption {
	return func(p *Primary) { p.maxRetries = n }
}

// WithPrimaryBackoffBase overrides the doubling base used between retry
// attempts (1x, 2x, 4x, ... of base). Defaults to one second; tests that
// need to exercise retry counts without waiting real seconds should pass
// a base in the low milliseconds.
func WithPrimaryBackoffBase(d time.Duration) PrimaryOption {
	return func(p *Primary) { p.backoffBase = d }
}

func WithPrimaryAuthSecret(secret []byte) PrimaryOption {
	return func(p *Primary) { p.authSecret = secret }
}

func WithPrimaryLogger(l Logger) PrimaryOption {
	return func(p *Primary) { p.logger = l }
}

func WithPrimaryHTTPClient(c *http.Client) PrimaryOption {
	return func(p *Primary) { p.client = c }
}

// NewPrimary constructs a Primary transmitter targeting endpoint, signing
// batches under projectID when AuthSecret is configured via
// WithPrimaryAuthSecret.
func NewPrimary(endpoint, projectID string, opts ...PrimaryOption) *Primary {
	p := &Primary{
		endpoint:    endpoint,
		projectID:   projectID,
		client:      &http.Client{},
		timeout:     30 * time.Second,
		maxRetries:  3,
		backoffBase: time.Second,
		logger:      noopLogger{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Primary) IsAvailable() bool { return p.endpoint != "" }

func (p *Primary) Priority() int { return PriorityPrimary }

func (p *Primary) Send(ctx context.Context, batch event.Batch) error {
	body, err := wire.MarshalBatch(&batch)
	if err != nil {
		return fmt.Errorf("transmit: marshal batch: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * p.backoffBase
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := p.attempt(ctx, batch.BatchID, body); err != nil {
			lastErr = err
			p.logger.Warn("transmit: primary send failed", "attempt", attempt+1, "err", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("transmit: primary exhausted %d retries: %w", p.maxRetries, lastErr)
}

func (p *Primary) attempt(ctx context.Context, batchID string, body []byte) error {
	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transmit: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if len(p.authSecret) > 0 {
		token, err := p.signBatch(batchID)
		if err != nil {
			return fmt.Errorf("transmit: sign batch: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("transmit: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("transmit: endpoint returned status %d", resp.StatusCode)
}

func (p *Primary) signBatch(batchID string) (string, error) {
	now := time.Now()
	claims := &batchClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
		ProjectID: p.projectID,
		BatchID:   batchID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.authSecret)
}
