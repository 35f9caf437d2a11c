package sdk

import (
	"context"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/omnitrack/config"
	"github.com/hazyhaar/omnitrack/identity"
)

// fakePage is a minimal tracker.Page stand-in — not a *hostbrowser.Page —
// used to confirm Initialize's automatic LocalStorage selection only
// engages for a real hostbrowser.Page and otherwise leaves identity on
// its in-memory default without panicking on the type assertion.
type fakePage struct{}

func (fakePage) URL() string              { return "" }
func (fakePage) Referrer() string         { return "" }
func (fakePage) Title() string            { return "" }
func (fakePage) Route() string            { return "" }
func (fakePage) PageSize() (int, int)     { return 0, 0 }
func (fakePage) ViewportSize() (int, int) { return 0, 0 }
func (fakePage) DOM() (*html.Node, error) { return nil, nil }

func (fakePage) WaitInteractive(ctx context.Context) error { return nil }

func (fakePage) OnClick(func(*html.Node, float64, float64)) func() { return func() {} }
func (fakePage) OnNavigate(func(string)) func()                    { return func() {} }
func (fakePage) OnMutation(func()) func()                          { return func() {} }

func TestInitialize_SingletonLifecycle(t *testing.T) {
	c, err := Initialize(Options{
		Config: config.Config{
			ProjectID: "proj-1",
			Endpoint:  "https://collect.example.com",
			BatchSize: 10,
		},
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Destroy()

	if Instance() != c {
		t.Fatal("expected Instance() to return the just-initialized container")
	}

	if _, err := Initialize(Options{Config: config.Config{ProjectID: "x", Endpoint: "y"}}); err == nil {
		t.Fatal("expected second Initialize to fail while an instance is running")
	}

	c.Tracker.TrackCustom("smoke")
	// Give the queue's owner goroutine a moment to record the add.
	time.Sleep(5 * time.Millisecond)
	// The built-in page-view plugin queued the initial page view during
	// Initialize, so the custom event is the second one.
	if c.Queue.Size() != 2 {
		t.Fatalf("expected 2 queued events, got %d", c.Queue.Size())
	}

	Destroy()
	if Instance() != nil {
		t.Fatal("expected Instance() to be nil after Destroy")
	}
}

func TestInitialize_RejectsInvalidConfig(t *testing.T) {
	if _, err := Initialize(Options{Config: config.Config{}}); err == nil {
		t.Fatal("expected error for missing projectId/endpoint")
	}
	if Instance() != nil {
		t.Fatal("expected no instance to remain registered after a failed Initialize")
	}
}

func TestInitialize_NonBrowserPageDoesNotSelectLocalStorage(t *testing.T) {
	c, err := Initialize(Options{
		Config: config.Config{ProjectID: "proj-1", Endpoint: "https://collect.example.com"},
		Page:   fakePage{},
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Destroy()

	c.Tracker.NewSession()
	if c.Tracker.GetSessionId() == "" {
		t.Fatal("expected identity to still produce a session id via its in-memory fallback")
	}
}

func TestInitialize_ExplicitStoreOverridesAutoSelection(t *testing.T) {
	store := identity.NewMemoryStore()
	c, err := Initialize(Options{
		Config: config.Config{ProjectID: "proj-1", Endpoint: "https://collect.example.com"},
		Store:  store,
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Destroy()

	sid := c.Tracker.GetSessionId()
	if _, ok, _ := store.Get(c.Config.SessionStorageKey); !ok {
		t.Fatalf("expected explicit store to receive the session record for %q", sid)
	}
}

func TestInitialize_RegistersBuiltinPlugins(t *testing.T) {
	c, err := Initialize(Options{
		Config: config.Config{ProjectID: "proj-1", Endpoint: "https://collect.example.com"},
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer Destroy()

	names := c.Registry.Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 builtin plugins registered, got %d: %v", len(names), names)
	}
}
