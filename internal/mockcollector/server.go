// Package mockcollector is a dev/test-only ingestion server: it decodes
// and validates batches the way a production collector would, storing
// them in memory for inspection rather than forwarding them anywhere.
// It exists so sdk and cmd/omnitrack-demo have something real to POST
// batches at without standing up external infrastructure.
package mockcollector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/omnitrack/event"
)

// Server is an in-memory ingestion endpoint matching the wire contract
// transmit.Primary and transmit.Fallback POST against.
type Server struct {
	address string
	logger  *slog.Logger
	limiter *RateLimiter
	server  *http.Server

	mu      sync.Mutex
	batches []event.Batch
}

// NewServer constructs a Server listening on address. A nil logger
// defaults to slog.Default().
func NewServer(address string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		logger:  logger,
		limiter: NewRateLimiter(RateLimitConfig{MaxRequests: 120, Window: time.Minute}),
	}
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.limiter.Middleware)
	r.Get("/healthz", s.handleHealthz)
	r.Post("/events", s.handleEvents)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var batch event.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := event.ValidateBatch(batch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.batches = append(s.batches, batch)
	s.mu.Unlock()

	s.logger.Info("mockcollector: batch accepted", "batchId", batch.BatchID, "events", len(batch.Events))
	w.WriteHeader(http.StatusNoContent)
}

// Batches returns every batch accepted so far, for test assertions.
func (s *Server) Batches() []event.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Batch(nil), s.batches...)
}

// Start begins serving in the background. Call Shutdown to stop it.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mockcollector: listening", "address", s.address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("mockcollector: listen: %w", err)
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
