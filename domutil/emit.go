package domutil

import "golang.org/x/net/html"

const snapshotOffMarker = "data-analytics-snapshot"

// ShouldEmitSnapshot reports whether a non-initial snapshot should be
// captured: it must not be suppressed by the off marker, and its layout
// hash must differ from the last captured one.
func ShouldEmitSnapshot(n *html.Node, newHash, lastHash string) bool {
	if IsSnapshotSuppressed(n) {
		return false
	}
	return newHash != lastHash
}

// IsSnapshotSuppressed reports whether n (or any of its ancestors) bears
// the data-analytics-snapshot="off" marker, which suppresses capture of
// its subtree.
func IsSnapshotSuppressed(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if v, ok := lookupAttr(cur, snapshotOffMarker); ok && v == "off" {
			return true
		}
	}
	return false
}
