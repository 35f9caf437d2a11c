package domutil

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// SelectorPath produces a CSS selector path for n, ascending from n to the
// nearest ancestor carrying an id attribute, or to <body> if none is
// found first. Each level contributes its tag name, disambiguated with
// :nth-of-type(k) when more than one same-tag sibling shares the parent.
func SelectorPath(n *html.Node) string {
	var segments []string

	cur := n
	for cur != nil && cur.Type != html.DocumentNode {
		if cur.Type != html.ElementNode {
			cur = cur.Parent
			continue
		}

		tag := tagName(cur)
		id := attr(cur, "id")

		if id != "" {
			segments = append(segments, "#"+id)
			break
		}

		idx, total := siblingIndex(cur)
		if total > 1 {
			segments = append(segments, fmt.Sprintf("%s:nth-of-type(%d)", tag, idx))
		} else {
			segments = append(segments, tag)
		}

		if tag == "body" {
			break
		}
		cur = cur.Parent
	}

	// segments were collected innermost-first; reverse for root-first order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " > ")
}

// XPath produces an absolute XPath for n, ascending to the document root
// regardless of id attributes. Every ancestor segment carries a positional
// index tag[k], computed from 1-based same-tag sibling position.
func XPath(n *html.Node) string {
	var segments []string

	cur := n
	for cur != nil && cur.Type != html.DocumentNode {
		if cur.Type != html.ElementNode {
			cur = cur.Parent
			continue
		}
		tag := tagName(cur)
		idx, _ := siblingIndex(cur)
		segments = append(segments, fmt.Sprintf("%s[%d]", tag, idx))
		cur = cur.Parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return "/" + strings.Join(segments, "/")
}
