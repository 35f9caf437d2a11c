package transmit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hazyhaar/omnitrack/event"
	"github.com/hazyhaar/omnitrack/wire"
)

const PriorityFallback = 5

// Fallback is the unload-safe, fire-and-forget transmitter: it hands the
// request off to a detached goroutine with a short bounded deadline and
// returns immediately without awaiting the response, mirroring a
// browser's sendBeacon semantics. It never retries.
type Fallback struct {
	endpoint string
	client   *http.Client
	deadline time.Duration
	logger   Logger
}

// FallbackOption configures a Fallback transmitter.
type FallbackOption func(*Fallback)

func WithFallbackDeadline(d time.Duration) FallbackOption {
	return func(f *Fallback) { f.deadline = d }
}

func WithFallbackLogger(l Logger) FallbackOption {
	return func(f *Fallback) { f.logger = l }
}

// NewFallback constructs a Fallback transmitter targeting endpoint.
func NewFallback(endpoint string, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		endpoint: endpoint,
		client:   &http.Client{},
		deadline: 2 * time.Second,
		logger:   noopLogger{},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Fallback) IsAvailable() bool { return f.endpoint != "" }

func (f *Fallback) Priority() int { return PriorityFallback }

// Send hands the batch off to a detached goroutine and returns
// immediately. The caller (Queue) treats a nil error as "accepted for
// best-effort delivery", matching an unload-safe beacon's semantics: the
// caller never learns whether the network send itself succeeded.
func (f *Fallback) Send(ctx context.Context, batch event.Batch) error {
	body, err := wire.MarshalBatch(&batch)
	if err != nil {
		return fmt.Errorf("transmit: marshal batch: %w", err)
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), f.deadline)
		defer cancel()

		req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, f.endpoint, bytes.NewReader(body))
		if err != nil {
			f.logger.Warn("transmit: fallback build request failed", "err", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			f.logger.Debug("transmit: fallback send failed", "err", err)
			return
		}
		resp.Body.Close()
	}()

	return nil
}
