package hostbrowser

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestFindByAttr_LocatesMarkedElement(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<html><body><div><button data-omnitrack-click-marker="abc">Go</button></div></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	found := findByAttr(doc, clickMarkerAttr, "abc")
	if found == nil {
		t.Fatal("expected to find marked node")
	}
	if found.Data != "button" {
		t.Fatalf("expected button, got %s", found.Data)
	}
}

func TestFindByAttr_MissingMarkerReturnsNil(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><button>Go</button></body></html>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if found := findByAttr(doc, clickMarkerAttr, "missing"); found != nil {
		t.Fatalf("expected nil, got %v", found)
	}
}

func TestPage_DispatchRoutesByType(t *testing.T) {
	p := &Page{logger: noopLogger{}}

	var navRoute string
	var mutationCount int
	p.OnNavigate(func(route string) { navRoute = route })
	p.OnMutation(func() { mutationCount++ })

	p.dispatch(signal{Type: "navigate", Route: "/pricing"})
	p.dispatch(signal{Type: "mutation"})
	p.dispatch(signal{Type: "mutation"})

	if navRoute != "/pricing" {
		t.Fatalf("expected navRoute /pricing, got %q", navRoute)
	}
	if mutationCount != 2 {
		t.Fatalf("expected 2 mutation signals, got %d", mutationCount)
	}
}

func TestPage_DetachStopsDelivery(t *testing.T) {
	p := &Page{logger: noopLogger{}}

	var calls int
	detach := p.OnNavigate(func(string) { calls++ })
	p.dispatch(signal{Type: "navigate", Route: "/a"})
	detach()
	p.dispatch(signal{Type: "navigate", Route: "/b"})

	if calls != 1 {
		t.Fatalf("expected 1 call before detach, got %d", calls)
	}
}
