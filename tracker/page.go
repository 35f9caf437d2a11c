package tracker

import (
	"context"

	"golang.org/x/net/html"
)

// Page is the narrow capability AutoCapture needs from a host page: its
// current URL/referrer/dimensions, a DOM tree for click resolution and
// snapshot capture, and delegated click/navigation/mutation signals.
// hostbrowser.Page satisfies it against a real CDP-driven tab; tests
// satisfy it with fakes — the same "drive a pluggable capability, not a
// concrete implementation" shape transmit.Transmitter uses for delivery.
type Page interface {
	URL() string
	Referrer() string
	Title() string
	Route() string
	PageSize() (width, height int)
	ViewportSize() (width, height int)
	DOM() (*html.Node, error)

	// WaitInteractive blocks until the document reaches (at least) an
	// interactive ready state, or ctx is done.
	WaitInteractive(ctx context.Context) error

	// OnClick/OnNavigate/OnMutation install a delegated listener and
	// return a detach function. Each may be called at most once while
	// the corresponding capture is enabled.
	OnClick(handler func(target *html.Node, x, y float64)) (detach func())
	OnNavigate(handler func(route string)) (detach func())
	OnMutation(handler func()) (detach func())
}
