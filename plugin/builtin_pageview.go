package plugin

import "context"

// PageViewPlugin wraps automatic page-view capture behind the plugin
// contract: the tracker exposes no privileged page-view hook, this plugin
// is how auto-capture gets turned on.
type PageViewPlugin struct {
	tracker TrackerAPI
}

func NewPageViewPlugin() *PageViewPlugin { return &PageViewPlugin{} }

func (*PageViewPlugin) Name() string    { return "builtin:page-view" }
func (*PageViewPlugin) Version() string { return "1.0.0" }

func (p *PageViewPlugin) Init(ctx context.Context, pctx Context) error {
	p.tracker = pctx.Tracker
	return pctx.Tracker.EnablePageViewCapture(ctx)
}

func (p *PageViewPlugin) Destroy(context.Context) error {
	if p.tracker == nil {
		return nil
	}
	return p.tracker.DisablePageViewCapture()
}
