// Command omnitrack-demo runs a self-contained end-to-end demonstration of
// the omnitrack SDK: a mock collector accepts batches over HTTP, a fake
// in-memory page stands in for a real browser tab, and a handful of
// track calls exercise identity, batching, and delivery without any
// external infrastructure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/omnitrack/config"
	"github.com/hazyhaar/omnitrack/internal/mockcollector"
	"github.com/hazyhaar/omnitrack/sdk"
	"github.com/hazyhaar/omnitrack/telemetry"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8417", "mock collector listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *addr); err != nil {
		logger.Error("omnitrack-demo: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, addr string) error {
	collector := mockcollector.NewServer(addr, logger)
	if err := collector.Start(); err != nil {
		return fmt.Errorf("start mock collector: %w", err)
	}
	defer collector.Shutdown()

	page := newDemoPage("https://demo.example.com/", "Demo Home")

	c, err := sdk.Initialize(sdk.Options{
		Config: config.Config{
			ProjectID:    "demo-project",
			Endpoint:     fmt.Sprintf("http://%s/events", addr),
			BatchSize:    5,
			BatchTimeout: 2 * time.Second,
		},
		Page:   page,
		Logger: telemetry.NewSlogLogger(logger),
	})
	if err != nil {
		return fmt.Errorf("initialize sdk: %w", err)
	}
	defer sdk.Destroy()

	c.Tracker.TrackPageView()
	c.Tracker.TrackCustom("demo_started", map[string]any{"source": "cli"})

	target := &html.Node{Type: html.ElementNode, Data: "button"}
	target.AppendChild(&html.Node{Type: html.TextNode, Data: "Buy now"})
	c.Tracker.TrackClick(target)

	page.navigate("https://demo.example.com/cart")
	c.Tracker.TrackPageView()

	c.Tracker.Flush()
	time.Sleep(200 * time.Millisecond)

	for _, b := range collector.Batches() {
		logger.Info("omnitrack-demo: batch received", "batchId", b.BatchID, "events", len(b.Events))
	}

	return nil
}

// demoPage is a minimal in-memory tracker.Page standing in for a real
// hostbrowser.Page, so the demo runs without launching a browser.
type demoPage struct {
	url, title string
}

func newDemoPage(url, title string) *demoPage {
	return &demoPage{url: url, title: title}
}

func (p *demoPage) navigate(url string) { p.url = url }

func (p *demoPage) URL() string              { return p.url }
func (p *demoPage) Referrer() string         { return "" }
func (p *demoPage) Title() string            { return p.title }
func (p *demoPage) Route() string            { return p.url }
func (p *demoPage) PageSize() (int, int)     { return 1280, 2400 }
func (p *demoPage) ViewportSize() (int, int) { return 1280, 800 }

func (p *demoPage) DOM() (*html.Node, error) {
	return &html.Node{Type: html.DocumentNode}, nil
}

func (p *demoPage) WaitInteractive(ctx context.Context) error { return nil }

func (p *demoPage) OnClick(func(target *html.Node, x, y float64)) func() { return func() {} }
func (p *demoPage) OnNavigate(func(route string)) func()                 { return func() {} }
func (p *demoPage) OnMutation(func()) func()                             { return func() {} }
