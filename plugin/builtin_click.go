package plugin

import "context"

// ClickPlugin wraps the delegated document-level click listener behind
// the plugin contract.
type ClickPlugin struct {
	tracker TrackerAPI
}

func NewClickPlugin() *ClickPlugin { return &ClickPlugin{} }

func (*ClickPlugin) Name() string    { return "builtin:click" }
func (*ClickPlugin) Version() string { return "1.0.0" }

func (p *ClickPlugin) Init(ctx context.Context, pctx Context) error {
	p.tracker = pctx.Tracker
	return pctx.Tracker.EnableClickCapture(ctx)
}

func (p *ClickPlugin) Destroy(context.Context) error {
	if p.tracker == nil {
		return nil
	}
	return p.tracker.DisableClickCapture()
}
