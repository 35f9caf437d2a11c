package domutil

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

var previewConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// Preview renders a sanitized snapshot's HTML into a short human-readable
// markdown string, for debug-level logging only. It is never sent over
// the wire; callers should log the result at debug level and discard it.
func Preview(sanitizedHTML string) string {
	md, err := previewConverter.ConvertString(sanitizedHTML)
	if err != nil {
		return ""
	}
	const maxPreviewLen = 2000
	if len(md) > maxPreviewLen {
		return md[:maxPreviewLen] + "…"
	}
	return md
}
