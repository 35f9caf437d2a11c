package domutil

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// MaxLayoutHashDepth bounds how deep LayoutHash walks the tree. The spec
// requires a bound of at least 20.
const MaxLayoutHashDepth = 20

var transientClassPattern = regexp.MustCompile(`^(active|selected|open|hidden|show)`)

// Rect is the integer bounding box of an element, supplied by the caller
// (a live DOM has real layout geometry; a parsed-only tree does not, so
// LayoutHash accepts rects out of band via a lookup function).
type Rect struct {
	Width  int
	Height int
}

// RectLookup returns the layout rectangle for a node, or the zero Rect if
// unknown (e.g. when no live layout information is available).
type RectLookup func(n *html.Node) Rect

// LayoutHash computes a deterministic "sha256:"-prefixed digest of n's
// structural skeleton: for each element (to MaxLayoutHashDepth), its
// lowercased tag, optional #id, up to three non-transient layout classes,
// and its integer width×height rectangle. Text content is excluded.
func LayoutHash(n *html.Node, rects RectLookup) string {
	if rects == nil {
		rects = func(*html.Node) Rect { return Rect{} }
	}
	var sb strings.Builder
	walkForHash(n, 0, rects, &sb)
	sum := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("sha256:%x", sum)
}

func walkForHash(n *html.Node, depth int, rects RectLookup, sb *strings.Builder) {
	if n == nil || depth > MaxLayoutHashDepth {
		return
	}

	if n.Type == html.ElementNode {
		tag := tagName(n)
		sb.WriteString(tag)

		if id := attr(n, "id"); id != "" {
			sb.WriteByte('#')
			sb.WriteString(id)
		}

		kept := 0
		for _, c := range classes(n) {
			if transientClassPattern.MatchString(c) {
				continue
			}
			sb.WriteByte('.')
			sb.WriteString(c)
			kept++
			if kept == 3 {
				break
			}
		}

		rect := rects(n)
		fmt.Fprintf(sb, "[%dx%d]", rect.Width, rect.Height)
		sb.WriteByte(';')
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkForHash(c, depth+1, rects, sb)
	}
}
