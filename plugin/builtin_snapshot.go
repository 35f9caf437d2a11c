package plugin

import "context"

// SnapshotPlugin wraps mutation-debounced and periodic DOM snapshot
// capture behind the plugin contract.
type SnapshotPlugin struct {
	tracker TrackerAPI
}

func NewSnapshotPlugin() *SnapshotPlugin { return &SnapshotPlugin{} }

func (*SnapshotPlugin) Name() string    { return "builtin:snapshot" }
func (*SnapshotPlugin) Version() string { return "1.0.0" }

func (p *SnapshotPlugin) Init(ctx context.Context, pctx Context) error {
	p.tracker = pctx.Tracker
	return pctx.Tracker.EnableSnapshotCapture(ctx)
}

func (p *SnapshotPlugin) Destroy(context.Context) error {
	if p.tracker == nil {
		return nil
	}
	return p.tracker.DisableSnapshotCapture()
}
