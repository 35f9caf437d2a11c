// Package queue implements the batching queue: a single goroutine owns
// the pending-event sequence and a timer, accumulating events until a
// size or time threshold is reached, then handing the resulting batch to
// a single dispatch worker that resolves transmitter selection in the
// order batches were handed off.
package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hazyhaar/omnitrack/event"
	"github.com/hazyhaar/omnitrack/idgen"
	"github.com/hazyhaar/omnitrack/transmit"
)

// Logger is the minimal logging surface Queue uses when a batch is
// discarded after every transmitter has failed.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

type addMsg struct {
	evt  event.Event
	done chan struct{}
}

// dispatchQueueCapacity bounds how many flushed batches may be waiting on
// the dispatch worker at once. It only matters under sustained transmitter
// outage or a very slow Send; ordinary operation never approaches it.
const dispatchQueueCapacity = 64

// Queue accumulates events and flushes them as Batches to a priority-
// ordered list of transmit.Transmitter. All mutation of queue state
// happens on a single internal goroutine; Add/Flush/Clear/Size are safe
// to call from any goroutine and block only long enough to hand off to
// the owner loop.
type Queue struct {
	batchSize    int
	batchTimeout time.Duration
	transmitters []transmit.Transmitter
	genID        idgen.Generator
	logger       Logger
	now          func() time.Time

	addCh      chan addMsg
	flushCh    chan chan struct{}
	clearCh    chan chan struct{}
	sizeCh     chan chan int
	destroyCh  chan chan struct{}
	dispatchCh chan event.Batch

	destroyedMu sync.RWMutex
	destroyed   bool
}

// Config controls Queue construction.
type Config struct {
	BatchSize    int
	BatchTimeout time.Duration
	Transmitters []transmit.Transmitter
	Logger       Logger
}

// New constructs and starts a Queue's owner goroutine.
func New(cfg Config) *Queue {
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	sorted := append([]transmit.Transmitter(nil), cfg.Transmitters...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})

	q := &Queue{
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout,
		transmitters: sorted,
		genID:        idgen.UUIDv7(),
		logger:       cfg.Logger,
		now:          time.Now,

		addCh:      make(chan addMsg),
		flushCh:    make(chan chan struct{}),
		clearCh:    make(chan chan struct{}),
		sizeCh:     make(chan chan int),
		destroyCh:  make(chan chan struct{}),
		dispatchCh: make(chan event.Batch, dispatchQueueCapacity),
	}
	go q.loop()
	go q.dispatchLoop()
	return q
}

// Add appends evt to the pending sequence. If the batch-size threshold is
// reached, a flush is triggered synchronously from the owner goroutine's
// perspective (the caller's Add call itself still returns promptly).
func (q *Queue) Add(evt event.Event) {
	if q.isDestroyed() {
		return
	}
	done := make(chan struct{})
	select {
	case q.addCh <- addMsg{evt: evt, done: done}:
		<-done
	case <-timeAfterClosed():
	}
}

// Flush snapshots and clears the pending sequence into a new Batch and
// resolves transmitter selection against it. A no-op on an empty queue.
func (q *Queue) Flush() {
	if q.isDestroyed() {
		return
	}
	done := make(chan struct{})
	q.flushCh <- done
	<-done
}

// Clear discards all pending events without attempting transmission.
func (q *Queue) Clear() {
	if q.isDestroyed() {
		return
	}
	done := make(chan struct{})
	q.clearCh <- done
	<-done
}

// Size returns the number of pending events.
func (q *Queue) Size() int {
	if q.isDestroyed() {
		return 0
	}
	reply := make(chan int)
	q.sizeCh <- reply
	return <-reply
}

// Destroy stops the owner goroutine, cancelling any pending timer and
// attempting one best-effort final flush first. Safe to call more than
// once.
func (q *Queue) Destroy() {
	q.destroyedMu.Lock()
	if q.destroyed {
		q.destroyedMu.Unlock()
		return
	}
	q.destroyed = true
	q.destroyedMu.Unlock()

	done := make(chan struct{})
	q.destroyCh <- done
	<-done
}

func (q *Queue) isDestroyed() bool {
	q.destroyedMu.RLock()
	defer q.destroyedMu.RUnlock()
	return q.destroyed
}

func timeAfterClosed() <-chan time.Time {
	// Add never legitimately blocks forever: the owner loop always
	// drains addCh except during its own shutdown sequence, at which
	// point isDestroyed() short-circuits future calls. This exists only
	// to bound the narrow race between Destroy() flipping the flag and
	// the owner loop exiting.
	return time.After(time.Second)
}

func (q *Queue) loop() {
	var pending []event.Event
	var timer *time.Timer
	var timerC <-chan time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	flush := func() {
		if len(pending) == 0 {
			stopTimer()
			return
		}
		batch := event.Batch{
			BatchID:   q.genID(),
			Timestamp: q.now().UnixMilli(),
			Events:    pending,
		}
		pending = nil
		stopTimer()
		// Handing the batch to the dispatch worker is the queue's only
		// true suspension point: the worker runs on its own goroutine so
		// the owner loop keeps accepting Add/Flush calls for the next
		// batch immediately, the same way a single-threaded host hands a
		// send() promise off without awaiting it inline. Sending (rather
		// than spawning a fresh goroutine per flush) keeps batches in
		// the single worker's FIFO order, so a slow send on batch N can
		// never let batch N+1 land at the collector first.
		q.dispatchCh <- batch
	}

	for {
		select {
		case msg := <-q.addCh:
			pending = append(pending, msg.evt)
			if len(pending) >= q.batchSize && q.batchSize > 0 {
				flush()
			} else if timer == nil {
				timer = time.NewTimer(q.batchTimeout)
				timerC = timer.C
			}
			close(msg.done)

		case <-timerC:
			flush()

		case done := <-q.flushCh:
			flush()
			close(done)

		case done := <-q.clearCh:
			pending = nil
			stopTimer()
			close(done)

		case reply := <-q.sizeCh:
			reply <- len(pending)

		case done := <-q.destroyCh:
			flush()
			close(done)
			close(q.dispatchCh)
			return
		}
	}
}

// dispatchLoop is the queue's single dispatch worker: it drains
// dispatchCh strictly in send order, so batches are always resolved
// against the transmitter list in the order they were flushed, even
// while an earlier batch's Send is still in flight. It exits once
// dispatchCh is closed and drained, after the owner loop shuts down.
func (q *Queue) dispatchLoop() {
	for batch := range q.dispatchCh {
		q.dispatch(batch)
	}
}

// dispatch walks the priority-sorted transmitter list, stopping at the
// first successful send. If every transmitter fails (or none is
// available), the batch is logged and discarded — it is never
// re-enqueued, to bound memory under persistent outage.
func (q *Queue) dispatch(batch event.Batch) {
	ctx := context.Background()
	var lastErr error
	for _, t := range q.transmitters {
		if !t.IsAvailable() {
			continue
		}
		if err := t.Send(ctx, batch); err != nil {
			lastErr = err
			continue
		}
		return
	}
	q.logger.Error("queue: all transmitters failed, discarding batch",
		"batchId", batch.BatchID, "events", len(batch.Events), "err", lastErr)
}
