package tracker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/omnitrack/config"
	"github.com/hazyhaar/omnitrack/domutil"
	"github.com/hazyhaar/omnitrack/event"
)

// AutoCapture drives page-view, click, and snapshot auto-instrumentation
// against a Page, translating its delegated signals into enriched Tracker
// calls. It is a pure-Go driver testable against any Page-shaped fake;
// hostbrowser supplies the CDP-backed Page it runs against in production,
// the same split domwatch/internal/observer draws between its loop()
// logic and browser.Tab.
type AutoCapture struct {
	t *Tracker

	mu sync.Mutex

	pageViewOn bool
	clickOn    bool
	snapshotOn bool

	detachNavigate func()
	detachClick    func()
	detachMutation func()

	mutationTimer *time.Timer
	periodicStop  chan struct{}

	lastLayoutHash string
}

func newAutoCapture(t *Tracker) *AutoCapture {
	return &AutoCapture{t: t}
}

// EnablePageViewCapture schedules the initial page view once the page
// reports an interactive document, then wires SPA navigation via
// Page.OnNavigate.
func (a *AutoCapture) EnablePageViewCapture(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pageViewOn {
		return nil
	}
	a.pageViewOn = true

	if a.t.page == nil {
		a.t.TrackPageView(PageViewPayload{IsInitialLoad: true})
		return nil
	}

	page := a.t.page
	go func() {
		if err := page.WaitInteractive(ctx); err != nil {
			a.t.logger.Warn("tracker: wait interactive failed", "err", err)
		}
		a.t.TrackPageView(PageViewPayload{IsInitialLoad: true})
	}()
	a.detachNavigate = page.OnNavigate(func(route string) {
		a.t.TrackPageView(PageViewPayload{Route: route, IsInitialLoad: false})
	})
	return nil
}

func (a *AutoCapture) DisablePageViewCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.pageViewOn {
		return nil
	}
	a.pageViewOn = false
	if a.detachNavigate != nil {
		a.detachNavigate()
		a.detachNavigate = nil
	}
	return nil
}

// EnableClickCapture installs a single delegated click listener. Targets
// whose selector chain passes through a data-analytics-snapshot="off"
// ancestor are skipped, reusing the same suppression marker
// domutil.IsSnapshotSuppressed applies to snapshot subtrees.
func (a *AutoCapture) EnableClickCapture(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clickOn {
		return nil
	}
	a.clickOn = true
	if a.t.page == nil {
		return nil
	}
	a.detachClick = a.t.page.OnClick(func(target *html.Node, x, y float64) {
		if target == nil || domutil.IsSnapshotSuppressed(target) {
			return
		}
		a.t.TrackClick(target, Coordinates{X: x, Y: y})
	})
	return nil
}

func (a *AutoCapture) DisableClickCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.clickOn {
		return nil
	}
	a.clickOn = false
	if a.detachClick != nil {
		a.detachClick()
		a.detachClick = nil
	}
	return nil
}

// EnableSnapshotCapture schedules initial/mutation/periodic DOM snapshots
// per config.Snapshot. Without a Page there is no DOM to capture, and
// Privacy.DisableSnapshots overrides Snapshot.Enabled outright, so either
// makes this a recorded no-op.
func (a *AutoCapture) EnableSnapshotCapture(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshotOn {
		return nil
	}
	a.snapshotOn = true
	if a.t.page == nil || a.t.cfg == nil || !a.t.cfg.Snapshot.Enabled || a.t.cfg.Privacy.DisableSnapshots {
		return nil
	}
	cfg := a.t.cfg.Snapshot

	if cfg.CaptureInitial {
		// Go has no requestIdleCallback; a short delay after load stands
		// in for "after first paint".
		time.AfterFunc(50*time.Millisecond, func() {
			a.captureSnapshot(event.SnapshotInitial)
		})
	}

	if cfg.CaptureMutations {
		a.detachMutation = a.t.page.OnMutation(func() {
			a.onMutationSignal(cfg.MutationThrottle)
		})
	}

	if cfg.CapturePeriodic {
		a.periodicStop = make(chan struct{})
		go a.runPeriodic(cfg.PeriodicInterval, a.periodicStop)
	}
	return nil
}

func (a *AutoCapture) onMutationSignal(throttle time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mutationTimer != nil {
		return
	}
	a.mutationTimer = time.AfterFunc(throttle, func() {
		a.mu.Lock()
		a.mutationTimer = nil
		a.mu.Unlock()
		a.captureSnapshot(event.SnapshotMutation)
	})
}

func (a *AutoCapture) runPeriodic(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.captureSnapshot(event.SnapshotPeriodic)
		}
	}
}

func (a *AutoCapture) DisableSnapshotCapture() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.snapshotOn {
		return nil
	}
	a.snapshotOn = false
	if a.detachMutation != nil {
		a.detachMutation()
		a.detachMutation = nil
	}
	if a.mutationTimer != nil {
		a.mutationTimer.Stop()
		a.mutationTimer = nil
	}
	if a.periodicStop != nil {
		close(a.periodicStop)
		a.periodicStop = nil
	}
	return nil
}

// captureSnapshot fetches the current DOM, decides whether a non-initial
// snapshot should be emitted, serializes/masks/compresses it, and emits
// the resulting snapshot event. Any failure along the way still emits a
// placeholder event, so the outage itself is observable.
func (a *AutoCapture) captureSnapshot(kind event.SnapshotKind) {
	root, err := a.t.page.DOM()
	if err != nil {
		a.t.logger.Error("tracker: snapshot DOM fetch failed", "err", err)
		a.emitPlaceholder(kind)
		return
	}

	layoutHash := domutil.LayoutHash(root, nil)

	if kind != event.SnapshotInitial {
		a.mu.Lock()
		emit := domutil.ShouldEmitSnapshot(root, layoutHash, a.lastLayoutHash)
		a.mu.Unlock()
		if !emit {
			return
		}
	}

	serialized, maskMeta, err := domutil.Serialize(root, sanitizeConfigFor(a.t.cfg))
	if err != nil {
		a.t.logger.Error("tracker: snapshot serialize failed", "err", err)
		a.emitPlaceholder(kind)
		return
	}

	maxSize := 512 * 1024
	if a.t.cfg != nil && a.t.cfg.Snapshot.MaxSnapshotSizeBytes > 0 {
		maxSize = a.t.cfg.Snapshot.MaxSnapshotSizeBytes
	}
	payload, compression, originalSize, compressedSize, truncated :=
		domutil.Compress(serialized, maxSize, a.t.logger)

	width, _ := a.t.page.ViewportSize()

	e := a.t.enrich(event.TypeSnapshot)
	e.SnapshotKind = kind
	e.ScreenClass = domutil.ScreenClassOf(width)
	e.LayoutHash = layoutHash
	e.DOM = payload
	e.Compression = compression
	e.OriginalSize = originalSize
	e.CompressedSize = compressedSize
	e.Truncated = truncated
	e.MaskMetadata = &maskMeta
	e.SchemaVersion = "1"

	a.mu.Lock()
	a.lastLayoutHash = layoutHash
	a.mu.Unlock()

	a.t.emit(e)
	a.t.logger.Debug("tracker: snapshot captured", "preview", domutil.Preview(serialized))
}

// emitPlaceholder substitutes a minimal placeholder body when
// serialization fails outright, still emitting the event so the outage
// is observable.
func (a *AutoCapture) emitPlaceholder(kind event.SnapshotKind) {
	e := a.t.enrich(event.TypeSnapshot)
	e.SnapshotKind = kind
	e.DOM = "<html><body><!-- Serialization failed --></body></html>"
	e.Truncated = true
	e.SchemaVersion = "1"
	a.t.emit(e)
}

func (a *AutoCapture) detachAll() {
	a.DisablePageViewCapture()
	a.DisableClickCapture()
	a.DisableSnapshotCapture()
}

func sanitizeConfigFor(cfg *config.Config) domutil.SanitizeConfig {
	if cfg == nil {
		return domutil.SanitizeConfig{}
	}
	return domutil.SanitizeConfig{
		BlockSelectors:    cfg.Privacy.BlockSelectors,
		MaskSelectors:     cfg.Privacy.MaskSelectors,
		MaxNodeTextLength: cfg.Privacy.MaxNodeTextLength,
	}
}
