package domutil

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/net/html"
)

// TextHash returns a short blake2b digest of n's visible text, for the
// click event's optional text-hash field. The spec leaves the hashing
// algorithm for this field unspecified (unlike LayoutHash, which mandates
// SHA-256), so blake2b is used here purely for its speed and to give the
// dependency a concrete home.
func TextHash(n *html.Node) string {
	text := collectText(n)
	if text == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(text))
	return fmt.Sprintf("blake2b:%x", sum[:16])
}
