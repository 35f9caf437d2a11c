package domutil

import "github.com/hazyhaar/omnitrack/event"

// ScreenClassOf classifies a viewport width per spec thresholds: mobile
// below 768px, tablet below 1024px, desktop otherwise.
func ScreenClassOf(viewportWidth int) event.ScreenClass {
	switch {
	case viewportWidth < 768:
		return event.ScreenMobile
	case viewportWidth < 1024:
		return event.ScreenTablet
	default:
		return event.ScreenDesktop
	}
}
