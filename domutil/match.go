package domutil

import (
	"strings"

	"golang.org/x/net/html"
)

// matchesSimpleSelector reports whether n satisfies sel, a single simple
// selector of the form tag, #id, .class (class may repeat), or
// [attr], [attr=value], [attr*=value], optionally combined (e.g.
// `input[type="password"]`). No combinators (descendant, child, etc.) are
// supported: block/mask selector lists are evaluated per-node, which
// matches how the spec describes them ("elements matched by configured
// block selectors").
func matchesSimpleSelector(n *html.Node, sel string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return false
	}

	for len(sel) > 0 {
		switch sel[0] {
		case '#':
			rest := sel[1:]
			name, tail := takeIdent(rest)
			if attr(n, "id") != name {
				return false
			}
			sel = tail
		case '.':
			rest := sel[1:]
			name, tail := takeIdent(rest)
			if !hasClass(n, name) {
				return false
			}
			sel = tail
		case '[':
			end := strings.IndexByte(sel, ']')
			if end < 0 {
				return false
			}
			if !matchesAttrSelector(n, sel[1:end]) {
				return false
			}
			sel = sel[end+1:]
		default:
			name, tail := takeIdent(sel)
			if name == "" {
				return false
			}
			if !strings.EqualFold(tagName(n), name) {
				return false
			}
			sel = tail
		}
	}
	return true
}

func takeIdent(s string) (ident, rest string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '.' || c == '#' || c == '[' {
			break
		}
		i++
	}
	return s[:i], s[i:]
}

func hasClass(n *html.Node, name string) bool {
	for _, c := range classes(n) {
		if c == name {
			return true
		}
	}
	return false
}

// matchesAttrSelector evaluates the content of a bracketed attribute
// selector, e.g. `type=password`, `type="password"`, `autocomplete*=cc-`,
// or a bare `data-foo` presence check.
func matchesAttrSelector(n *html.Node, inner string) bool {
	var op string
	var idx int
	switch {
	case strings.Contains(inner, "*="):
		op = "*="
		idx = strings.Index(inner, op)
	case strings.Contains(inner, "="):
		op = "="
		idx = strings.Index(inner, op)
	default:
		return hasAttr(n, strings.TrimSpace(inner))
	}

	key := strings.TrimSpace(inner[:idx])
	val := strings.Trim(strings.TrimSpace(inner[idx+len(op):]), `"'`)
	actual, ok := lookupAttr(n, key)
	if !ok {
		return false
	}
	if op == "*=" {
		return strings.Contains(actual, val)
	}
	return actual == val
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// matchesAny reports whether n matches any selector in the list.
func matchesAny(n *html.Node, selectors []string) bool {
	for _, s := range selectors {
		if matchesSimpleSelector(n, s) {
			return true
		}
	}
	return false
}
