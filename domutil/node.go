// Package domutil operates on golang.org/x/net/html trees: it computes
// element selectors and layout hashes, and produces sanitized,
// size-bounded DOM snapshots for the snapshot event pipeline.
package domutil

import (
	"strings"

	"golang.org/x/net/html"
)

// attr returns the value of attribute key on n, or "" if absent.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasAttr reports whether n carries attribute key, regardless of value.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// classes returns n's class attribute split on whitespace.
func classes(n *html.Node) []string {
	raw := attr(n, "class")
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

// tagName returns the lowercased element tag name, or "" for non-elements.
func tagName(n *html.Node) string {
	if n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// siblingIndex returns the 1-based index of n among its preceding
// same-tag siblings (1 if n is the first of its tag), and the total
// count of same-tag siblings under n's parent.
func siblingIndex(n *html.Node) (index, total int) {
	tag := tagName(n)
	if n.Parent == nil {
		return 1, 1
	}
	idx := 1
	count := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if tagName(c) != tag {
			continue
		}
		count++
		if c == n {
			idx = count
		}
	}
	return idx, count
}

// cloneTree returns a deep copy of n's subtree, so callers can sanitize
// without mutating the source document.
func cloneTree(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneTree(c))
	}
	return clone
}

// collectText concatenates all text node content under n, skipping
// script/style/noscript subtrees.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		}
		if n.Type == html.ElementNode {
			switch tagName(n) {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
