package hostbrowser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/net/html"
)

//go:embed inject.js
var injectJS string

const bindingName = "__omnitrack_binding"
const clickMarkerAttr = "data-omnitrack-click-marker"

// signal is the shape every injected JS message takes on the wire.
type signal struct {
	Type     string  `json:"type"`
	Route    string  `json:"route,omitempty"`
	MarkerID string  `json:"markerId,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

// Page implements tracker.Page against a real CDP-driven browser tab. It
// satisfies the interface structurally; hostbrowser does not import
// tracker, keeping the dependency pointed from the driver toward the
// browser, not back.
type Page struct {
	page   *rod.Page
	logger Logger

	mu             sync.Mutex
	clickHandler   func(target *html.Node, x, y float64)
	navHandler     func(route string)
	mutationHandler func()
	bindingStarted bool
}

// Open navigates a fresh tab to url and injects the observation script.
func Open(ctx context.Context, mgr *Manager, url string) (*Page, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("hostbrowser: no active browser")
	}

	rp, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("hostbrowser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := rp.Context(navCtx).Navigate(url); err != nil {
		rp.Close()
		return nil, fmt.Errorf("hostbrowser: navigate %s: %w", url, err)
	}
	if err := rp.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("hostbrowser: wait load timeout", "url", url, "error", err)
	}

	p := &Page{page: rp, logger: mgr.cfg.Logger}
	if p.logger == nil {
		p.logger = noopLogger{}
	}
	if err := p.inject(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) inject() error {
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(p.page); err != nil {
		p.logger.Warn("hostbrowser: add binding failed", "error", err)
	}
	if _, err := p.page.Eval(injectJS); err != nil {
		return fmt.Errorf("hostbrowser: inject script: %w", err)
	}
	p.startBindingListener()
	return nil
}

func (p *Page) startBindingListener() {
	p.mu.Lock()
	if p.bindingStarted {
		p.mu.Unlock()
		return
	}
	p.bindingStarted = true
	p.mu.Unlock()

	go p.page.EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		var sig signal
		if err := json.Unmarshal([]byte(e.Payload), &sig); err != nil {
			p.logger.Warn("hostbrowser: parse binding payload", "error", err)
			return
		}
		p.dispatch(sig)
	})()
}

func (p *Page) dispatch(sig signal) {
	p.mu.Lock()
	clickH, navH, mutH := p.clickHandler, p.navHandler, p.mutationHandler
	p.mu.Unlock()

	switch sig.Type {
	case "navigate":
		if navH != nil {
			navH(sig.Route)
		}
	case "mutation":
		if mutH != nil {
			mutH()
		}
	case "click":
		if clickH == nil {
			return
		}
		root, err := p.DOM()
		if err != nil {
			p.logger.Warn("hostbrowser: fetch DOM for click target", "error", err)
			clickH(nil, sig.X, sig.Y)
			return
		}
		target := findByAttr(root, clickMarkerAttr, sig.MarkerID)
		clickH(target, sig.X, sig.Y)
	}
}

func findByAttr(n *html.Node, key, val string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, key, val); found != nil {
			return found
		}
	}
	return nil
}

func (p *Page) evalString(js string) string {
	res, err := p.page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (p *Page) evalInt(js string) int {
	res, err := p.page.Eval(js)
	if err != nil {
		return 0
	}
	return int(res.Value.Int())
}

func (p *Page) URL() string      { return p.evalString(`() => location.href`) }
func (p *Page) Referrer() string { return p.evalString(`() => document.referrer`) }
func (p *Page) Title() string    { return p.evalString(`() => document.title`) }
func (p *Page) Route() string    { return p.evalString(`() => location.pathname + location.search`) }

func (p *Page) PageSize() (int, int) {
	return p.evalInt(`() => document.documentElement.scrollWidth`),
		p.evalInt(`() => document.documentElement.scrollHeight`)
}

func (p *Page) ViewportSize() (int, int) {
	return p.evalInt(`() => window.innerWidth`), p.evalInt(`() => window.innerHeight`)
}

// DOM fetches and parses the live document as an html.Node tree.
func (p *Page) DOM() (*html.Node, error) {
	res, err := p.page.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("hostbrowser: get DOM: %w", err)
	}
	root, err := html.Parse(strings.NewReader(res.Value.Str()))
	if err != nil {
		return nil, fmt.Errorf("hostbrowser: parse DOM: %w", err)
	}
	return root, nil
}

// WaitInteractive polls document.readyState until it is no longer
// "loading", or ctx is done. CDP exposes no blocking primitive for this
// short of a full lifecycle event subscription, so a short poll loop
// mirrors what domwatch's tab setup does with WaitLoad.
func (p *Page) WaitInteractive(ctx context.Context) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		state := p.evalString(`() => document.readyState`)
		if state == "interactive" || state == "complete" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Page) OnClick(handler func(target *html.Node, x, y float64)) func() {
	p.mu.Lock()
	p.clickHandler = handler
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.clickHandler = nil
		p.mu.Unlock()
	}
}

func (p *Page) OnNavigate(handler func(route string)) func() {
	p.mu.Lock()
	p.navHandler = handler
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.navHandler = nil
		p.mu.Unlock()
	}
}

func (p *Page) OnMutation(handler func()) func() {
	p.mu.Lock()
	p.mutationHandler = handler
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.mutationHandler = nil
		p.mu.Unlock()
	}
}

// Close releases the underlying tab.
func (p *Page) Close() error {
	if p.page != nil {
		return p.page.Close()
	}
	return nil
}
