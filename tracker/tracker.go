// Package tracker implements the public omnitrack API: event enrichment,
// the session state machine, and the pure-Go auto-capture driver that
// installs page-view, click, and snapshot instrumentation over a Page.
package tracker

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/omnitrack/config"
	"github.com/hazyhaar/omnitrack/domutil"
	"github.com/hazyhaar/omnitrack/event"
	"github.com/hazyhaar/omnitrack/identity"
	"github.com/hazyhaar/omnitrack/idgen"
	"github.com/hazyhaar/omnitrack/queue"
)

// Logger is the minimal logging surface Tracker and AutoCapture use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// PageViewPayload overrides the defaults TrackPageView would otherwise
// derive from the Page.
type PageViewPayload struct {
	Title         string
	Route         string
	IsInitialLoad bool
}

// Coordinates is the click position recorded on a click event. AutoCapture
// passes the position the page reported for the click; no position is
// derived from the clicked element's bounding box.
type Coordinates struct{ X, Y float64 }

// Tracker is the public omnitrack API: it enriches every captured event
// with identity and page context, feeds the batching queue, and owns the
// session state machine.
type Tracker struct {
	cfg      *config.Config
	identity *identity.Manager
	queue    *queue.Queue
	genEvent idgen.Generator
	logger   Logger
	page     Page // nil for headless embeddings with no host page

	state atomic.Int32

	clockMu sync.Mutex
	lastTS  int64

	auto *AutoCapture
}

// Config controls Tracker construction.
type Config struct {
	Config           *config.Config
	Identity         *identity.Manager
	Queue            *queue.Queue
	Page             Page
	Logger           Logger
	EventIDGenerator idgen.Generator
}

// New constructs a Tracker in State Initial. Call Start once auto-capture
// plugins (if any) have registered.
func New(cfg Config) *Tracker {
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.EventIDGenerator == nil {
		cfg.EventIDGenerator = idgen.UUIDv4()
	}
	t := &Tracker{
		cfg:      cfg.Config,
		identity: cfg.Identity,
		queue:    cfg.Queue,
		genEvent: cfg.EventIDGenerator,
		logger:   cfg.Logger,
		page:     cfg.Page,
	}
	t.state.Store(int32(StateInitial))
	t.auto = newAutoCapture(t)
	return t
}

// State returns the tracker's current lifecycle state.
func (t *Tracker) State() State { return State(t.state.Load()) }

// Start transitions Initial→Running. A no-op once already running.
func (t *Tracker) Start() {
	t.state.CompareAndSwap(int32(StateInitial), int32(StateRunning))
}

// Pause transitions Running→Paused: the tracker keeps accepting calls but
// drops the events they would have produced.
func (t *Tracker) Pause() {
	t.state.CompareAndSwap(int32(StateRunning), int32(StatePaused))
}

// Resume transitions Paused→Running.
func (t *Tracker) Resume() {
	t.state.CompareAndSwap(int32(StatePaused), int32(StateRunning))
}

// Destroy detaches every auto-capture listener and final-flushes the
// queue. Safe to call more than once; only the first call has effect.
func (t *Tracker) Destroy() {
	prev := State(t.state.Swap(int32(StateDestroyed)))
	if prev == StateDestroyed {
		return
	}
	t.auto.detachAll()
	if t.queue != nil {
		t.queue.Destroy()
	}
}

// nowMs returns a millisecond timestamp that never goes backwards across
// calls from the same Tracker, so later track* calls always produce
// timestamps at or after earlier ones within a single capture thread.
func (t *Tracker) nowMs() int64 {
	t.clockMu.Lock()
	defer t.clockMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= t.lastTS {
		now = t.lastTS + 1
	}
	t.lastTS = now
	return now
}

func (t *Tracker) enrich(typ event.Type) event.Event {
	var userID *string
	if t.cfg != nil {
		userID = t.cfg.UserID()
	}
	e := event.Event{
		EventID:   t.genEvent(),
		ProjectID: t.projectID(),
		ClientID:  t.clientID(),
		SessionID: t.sessionID(),
		UserID:    userID,
		Type:      typ,
		Timestamp: t.nowMs(),
	}
	if t.page != nil {
		e.URL = t.page.URL()
		e.Referrer = t.page.Referrer()
		e.PageWidth, e.PageHeight = t.page.PageSize()
		e.ViewportWidth, e.ViewportHeight = t.page.ViewportSize()
	}
	if t.identity != nil {
		t.identity.CheckSessionExpired()
	}
	return e
}

func (t *Tracker) projectID() string {
	if t.cfg == nil {
		return ""
	}
	return t.cfg.ProjectID
}

func (t *Tracker) clientID() string {
	if t.identity != nil {
		return t.identity.ClientID()
	}
	if t.cfg != nil {
		return t.cfg.ClientID()
	}
	return ""
}

func (t *Tracker) sessionID() string {
	if t.identity == nil {
		return ""
	}
	return t.identity.GetSessionID()
}

// emit hands e to the queue unless the tracker is paused or destroyed, in
// which case it is dropped rather than queued.
func (t *Tracker) emit(e event.Event) {
	switch State(t.state.Load()) {
	case StateDestroyed, StatePaused:
		return
	}
	if t.queue != nil {
		t.queue.Add(e)
	}
}

// TrackPageView constructs a page-view event, filling title/route from the
// Page when payload omits them.
func (t *Tracker) TrackPageView(payload ...PageViewPayload) {
	var p PageViewPayload
	if len(payload) > 0 {
		p = payload[0]
	}
	e := t.enrich(event.TypePageView)
	e.Title = p.Title
	if e.Title == "" && t.page != nil {
		e.Title = t.page.Title()
	}
	e.Route = p.Route
	if e.Route == "" && t.page != nil {
		e.Route = t.page.Route()
	}
	e.IsInitialLoad = p.IsInitialLoad
	t.emit(e)
}

// TrackClick constructs a click event for target, filling selector/xpath/
// tagName/textHash via domutil. coords sets the event's X/Y; without
// coords both stay zero, since an *html.Node carries no layout geometry.
func (t *Tracker) TrackClick(target *html.Node, coords ...Coordinates) {
	e := t.enrich(event.TypeClick)
	if len(coords) > 0 {
		e.X, e.Y = coords[0].X, coords[0].Y
	}
	if target != nil {
		e.Selector = domutil.SelectorPath(target)
		e.XPath = domutil.XPath(target)
		e.TagName = strings.ToUpper(target.Data)
		e.TextHash = domutil.TextHash(target)
	}
	t.emit(e)
}

// TrackCustom constructs a custom event with name and optional properties.
func (t *Tracker) TrackCustom(name string, properties ...map[string]any) {
	e := t.enrich(event.TypeCustom)
	e.Name = name
	if len(properties) > 0 {
		e.Properties = properties[0]
	}
	t.emit(e)
}

// SetUserId overrides the configured user id. Pass nil to clear it.
func (t *Tracker) SetUserId(id *string) {
	if t.cfg != nil {
		t.cfg.SetUserID(id)
	}
}

// SetClientId overrides the client id, persisting it through identity.
func (t *Tracker) SetClientId(id string) {
	if t.cfg != nil {
		t.cfg.SetClientID(id)
	}
	if t.identity != nil {
		t.identity.SetClientID(id)
	}
}

// GetSessionId returns the current session identifier.
func (t *Tracker) GetSessionId() string { return t.sessionID() }

// NewSession rotates the session and returns the fresh id.
func (t *Tracker) NewSession() string {
	if t.identity == nil {
		return ""
	}
	return t.identity.StartNewSession()
}

// Flush forces an immediate batch flush.
func (t *Tracker) Flush() {
	if t.queue != nil {
		t.queue.Flush()
	}
}

// The following satisfy plugin.TrackerAPI: the tracker holds no privileged
// auto-capture hook beyond what AutoCapture exposes through this surface.

func (t *Tracker) EnablePageViewCapture(ctx context.Context) error {
	return t.auto.EnablePageViewCapture(ctx)
}

func (t *Tracker) DisablePageViewCapture() error {
	return t.auto.DisablePageViewCapture()
}

func (t *Tracker) EnableClickCapture(ctx context.Context) error {
	return t.auto.EnableClickCapture(ctx)
}

func (t *Tracker) DisableClickCapture() error {
	return t.auto.DisableClickCapture()
}

func (t *Tracker) EnableSnapshotCapture(ctx context.Context) error {
	return t.auto.EnableSnapshotCapture(ctx)
}

func (t *Tracker) DisableSnapshotCapture() error {
	return t.auto.DisableSnapshotCapture()
}
