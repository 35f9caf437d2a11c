package domutil

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/omnitrack/event"
)

const maskedValue = "***MASKED***"

// defaultSensitiveSelector names the rule that triggers default sensitive
// field masking, reported in MaskMetadata alongside caller-configured
// selectors.
const defaultSensitiveSelector = "input[type=password]"

// SanitizeConfig controls Serialize's block/mask behavior.
type SanitizeConfig struct {
	BlockSelectors    []string
	MaskSelectors     []string
	MaxNodeTextLength int
}

var bluemondayPolicy = newSnapshotPolicy()

func newSnapshotPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowStandardAttributes()
	p.AllowElements(
		"html", "head", "body", "div", "span", "p", "a", "img",
		"ul", "ol", "li", "table", "thead", "tbody", "tr", "td", "th",
		"h1", "h2", "h3", "h4", "h5", "h6", "header", "footer", "nav",
		"main", "article", "section", "aside", "form", "label",
		"input", "button", "select", "option", "textarea",
		"strong", "em", "b", "i", "u", "br", "hr", "svg", "path",
	)
	p.AllowAttrs("id", "class", "style", "role", "type", "href", "src", "alt", "title").Globally()
	p.AllowAttrs("value").OnElements("input", "option", "button", "textarea")
	return p
}

// Serialize renders n's subtree into a sanitized, privacy-preserving XML
// string, following the ordered pipeline: strip script/noscript, strip
// on* attributes, remove block-selector matches, mask mask-selector
// matches and default sensitive fields, render, then run a locked-down
// bluemonday policy as a second, defense-in-depth pass. n is never
// mutated: sanitization operates on a deep clone.
func Serialize(n *html.Node, cfg SanitizeConfig) (string, event.MaskMetadata, error) {
	if cfg.MaxNodeTextLength <= 0 {
		cfg.MaxNodeTextLength = 200
	}

	clone := cloneTree(n)

	removeScriptsAndNoscripts(clone)
	stripOnAttributes(clone)

	meta := event.MaskMetadata{}
	meta.BlockedCount = removeBlocked(clone, cfg.BlockSelectors)

	maskedSet := map[string]struct{}{}
	applyMaskSelectors(clone, cfg.MaskSelectors, cfg.MaxNodeTextLength, maskedSet)
	applyDefaultSensitiveMasking(clone, cfg.MaxNodeTextLength, maskedSet)

	for sel := range maskedSet {
		meta.MaskedSelectors = append(meta.MaskedSelectors, sel)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, clone); err != nil {
		return "", meta, err
	}

	sanitized := bluemondayPolicy.Sanitize(buf.String())
	return sanitized, meta, nil
}

func removeScriptsAndNoscripts(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode {
			switch tagName(c) {
			case "script", "noscript":
				n.RemoveChild(c)
				continue
			}
		}
		removeScriptsAndNoscripts(c)
	}
}

func stripOnAttributes(n *html.Node) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripOnAttributes(c)
	}
}

func removeBlocked(n *html.Node, selectors []string) int {
	if len(selectors) == 0 {
		return 0
	}
	count := 0
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && matchesAny(c, selectors) {
			n.RemoveChild(c)
			count++
			continue
		}
		count += removeBlocked(c, selectors)
	}
	return count
}

func applyMaskSelectors(n *html.Node, selectors []string, maxText int, masked map[string]struct{}) {
	if n.Type == html.ElementNode {
		for _, sel := range selectors {
			if matchesSimpleSelector(n, sel) {
				maskNode(n, maxText)
				masked[sel] = struct{}{}
				break
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		applyMaskSelectors(c, selectors, maxText, masked)
	}
}

func applyDefaultSensitiveMasking(n *html.Node, maxText int, masked map[string]struct{}) {
	if n.Type == html.ElementNode && tagName(n) == "input" {
		if isSensitiveInput(n) {
			maskNode(n, maxText)
			masked[defaultSensitiveSelector] = struct{}{}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		applyDefaultSensitiveMasking(c, maxText, masked)
	}
}

func isSensitiveInput(n *html.Node) bool {
	typ := strings.ToLower(attr(n, "type"))
	if typ == "password" || typ == "hidden" {
		return true
	}
	auto := strings.ToLower(attr(n, "autocomplete"))
	if strings.Contains(auto, "cc-") || auto == "ssn" {
		return true
	}
	name := strings.ToLower(attr(n, "name"))
	if strings.Contains(name, "password") || strings.Contains(name, "token") || strings.Contains(name, "secret") {
		return true
	}
	return false
}

// maskNode replaces value/text content and strips value and data-*
// attributes on n, per the default masking rules: every masked element
// gets a value attribute set to the masked literal, and any
// text content under n is collapsed to the masked literal (truncated to
// maxText if the literal itself somehow exceeds it).
func maskNode(n *html.Node, maxText int) {
	var kept []html.Attribute
	for _, a := range n.Attr {
		switch {
		case a.Key == "value":
			continue
		case strings.HasPrefix(a.Key, "data-"):
			continue
		default:
			kept = append(kept, a)
		}
	}
	kept = append(kept, html.Attribute{Key: "value", Val: maskedValue})
	n.Attr = kept

	collapseText(n, maxText)
}

// collapseText removes every descendant text node and, if n originally
// carried any visible text, replaces it with a single masked-literal text
// node so that no fragment of the original content survives.
func collapseText(n *html.Node, maxText int) {
	hadText := false
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.TextNode {
			if strings.TrimSpace(c.Data) != "" {
				hadText = true
			}
			n.RemoveChild(c)
			continue
		}
		collapseText(c, maxText)
	}
	if hadText {
		literal := maskedValue
		if len(literal) > maxText {
			literal = literal[:maxText] + "…"
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: literal})
	}
}
