package domutil

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/omnitrack/event"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	return doc
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && tagName(n) == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func TestSelectorPath_StopsAtID(t *testing.T) {
	doc := parse(t, `<html><body><div id="app"><ul><li>x</li><li>y</li></ul></div></body></html>`)
	items := []*html.Node{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && tagName(n) == "li" {
			items = append(items, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(items) != 2 {
		t.Fatalf("expected 2 li elements, got %d", len(items))
	}
	path := SelectorPath(items[1])
	if !strings.Contains(path, "#app") {
		t.Errorf("expected selector to stop at #app, got %q", path)
	}
	if !strings.Contains(path, "li:nth-of-type(2)") {
		t.Errorf("expected nth-of-type(2) disambiguation, got %q", path)
	}
}

func TestSelectorPath_StopsAtBody(t *testing.T) {
	doc := parse(t, `<html><body><div><span>hi</span></div></body></html>`)
	span := findFirst(doc, "span")
	path := SelectorPath(span)
	if !strings.HasPrefix(path, "body") {
		t.Errorf("expected path to start at body, got %q", path)
	}
}

func TestXPath_PositionalIndices(t *testing.T) {
	doc := parse(t, `<html><body><div></div><div></div></body></html>`)
	divs := []*html.Node{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if tagName(n) == "div" {
			divs = append(divs, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(divs) != 2 {
		t.Fatalf("expected 2 divs, got %d", len(divs))
	}
	if !strings.HasSuffix(XPath(divs[0]), "div[1]") {
		t.Errorf("XPath[0] = %q, want suffix div[1]", XPath(divs[0]))
	}
	if !strings.HasSuffix(XPath(divs[1]), "div[2]") {
		t.Errorf("XPath[1] = %q, want suffix div[2]", XPath(divs[1]))
	}
}

func TestLayoutHash_Deterministic(t *testing.T) {
	doc1 := parse(t, `<html><body><div class="card"><span>a</span></div></body></html>`)
	doc2 := parse(t, `<html><body><div class="card"><span>b</span></div></body></html>`)
	h1 := LayoutHash(doc1, nil)
	h2 := LayoutHash(doc2, nil)
	if h1 != h2 {
		t.Errorf("expected layout hash to ignore text content: %q != %q", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Errorf("expected sha256: prefix, got %q", h1)
	}
}

func TestLayoutHash_ChangesOnStructure(t *testing.T) {
	doc1 := parse(t, `<html><body><div></div></body></html>`)
	doc2 := parse(t, `<html><body><div></div><span></span></body></html>`)
	if LayoutHash(doc1, nil) == LayoutHash(doc2, nil) {
		t.Error("expected layout hash to change when structure changes")
	}
}

func TestLayoutHash_IgnoresTransientClasses(t *testing.T) {
	doc1 := parse(t, `<html><body><div class="card active"></div></body></html>`)
	doc2 := parse(t, `<html><body><div class="card"></div></body></html>`)
	if LayoutHash(doc1, nil) != LayoutHash(doc2, nil) {
		t.Error("expected transient state class to not affect layout hash")
	}
}

func TestScreenClassOf(t *testing.T) {
	cases := []struct {
		width int
		want  event.ScreenClass
	}{
		{375, event.ScreenMobile},
		{767, event.ScreenMobile},
		{768, event.ScreenTablet},
		{1023, event.ScreenTablet},
		{1024, event.ScreenDesktop},
		{1920, event.ScreenDesktop},
	}
	for _, tc := range cases {
		if got := ScreenClassOf(tc.width); got != tc.want {
			t.Errorf("ScreenClassOf(%d) = %q, want %q", tc.width, got, tc.want)
		}
	}
}

func TestSerialize_RemovesScriptAndOnAttrs(t *testing.T) {
	doc := parse(t, `<html><body><script>alert(1)</script><div onclick="evil()">hi</div></body></html>`)
	out, _, err := Serialize(doc, SanitizeConfig{})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.Contains(out, "<script") {
		t.Errorf("expected script removed, got %q", out)
	}
	if strings.Contains(out, "onclick") {
		t.Errorf("expected onclick attribute removed, got %q", out)
	}
}

func TestSerialize_BlockSelectors(t *testing.T) {
	doc := parse(t, `<html><body><div class="ad">buy now</div><p>keep</p></body></html>`)
	out, meta, err := Serialize(doc, SanitizeConfig{BlockSelectors: []string{".ad"}})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.Contains(out, "buy now") {
		t.Errorf("expected blocked element removed, got %q", out)
	}
	if meta.BlockedCount != 1 {
		t.Errorf("BlockedCount = %d, want 1", meta.BlockedCount)
	}
}

func TestSerialize_ScenarioF_MaskingHidesSecrets(t *testing.T) {
	doc := parse(t, `<html><body>
		<input type="password" value="hunter2">
		<div class="secret">card 4111111111111111</div>
	</body></html>`)

	out, meta, err := Serialize(doc, SanitizeConfig{MaskSelectors: []string{".secret"}})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Errorf("expected password value masked, got %q", out)
	}
	if strings.Contains(out, "4111111111111111") {
		t.Errorf("expected card number masked, got %q", out)
	}

	found := map[string]bool{}
	for _, s := range meta.MaskedSelectors {
		found[s] = true
	}
	if !found[".secret"] {
		t.Errorf("expected .secret in MaskedSelectors, got %v", meta.MaskedSelectors)
	}
	if !found[defaultSensitiveSelector] {
		t.Errorf("expected default password selector in MaskedSelectors, got %v", meta.MaskedSelectors)
	}
}

func TestCompress_TruncatesOverMax(t *testing.T) {
	body := strings.Repeat("x", 1000)
	payload, _, originalSize, _, truncated := Compress(body, 100, nil)
	if !truncated {
		t.Error("expected truncated=true")
	}
	if originalSize != 1000 {
		t.Errorf("originalSize = %d, want 1000", originalSize)
	}
	if payload == "" {
		t.Error("expected non-empty payload")
	}
}

func TestCompress_NoTruncationUnderMax(t *testing.T) {
	body := "<div>small</div>"
	_, compression, _, _, truncated := Compress(body, 1<<20, nil)
	if truncated {
		t.Error("expected truncated=false for small payload")
	}
	if compression != event.CompressionGzip {
		t.Errorf("compression = %q, want gzip", compression)
	}
}

func TestShouldEmitSnapshot_SkipsUnchangedHash(t *testing.T) {
	doc := parse(t, `<html><body><div></div></body></html>`)
	if ShouldEmitSnapshot(doc, "h1", "h1") {
		t.Error("expected no emit when hash unchanged")
	}
	if !ShouldEmitSnapshot(doc, "h2", "h1") {
		t.Error("expected emit when hash changed")
	}
}

func TestShouldEmitSnapshot_SuppressedByMarker(t *testing.T) {
	doc := parse(t, `<html><body><div data-analytics-snapshot="off"><span id="target"></span></div></body></html>`)
	target := findFirst(doc, "span")
	if ShouldEmitSnapshot(target, "h2", "h1") {
		t.Error("expected suppression by data-analytics-snapshot=off ancestor")
	}
}

func TestTextHash_Deterministic(t *testing.T) {
	doc1 := parse(t, `<html><body><button>Buy now</button></body></html>`)
	doc2 := parse(t, `<html><body><button>Buy now</button></body></html>`)
	btn1 := findFirst(doc1, "button")
	btn2 := findFirst(doc2, "button")
	if TextHash(btn1) != TextHash(btn2) {
		t.Error("expected identical text to produce identical hash")
	}
}

func TestTextHash_EmptyText(t *testing.T) {
	doc := parse(t, `<html><body><div></div></body></html>`)
	div := findFirst(doc, "div")
	if TextHash(div) != "" {
		t.Error("expected empty hash for empty text")
	}
}
