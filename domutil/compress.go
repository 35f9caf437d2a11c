package domutil

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/omnitrack/event"
)

const truncationMarker = "<!-- TRUNCATED -->"

// DebugLogger is the minimal logging surface Compress uses to report
// payload sizes at debug level.
type DebugLogger interface {
	Debug(msg string, args ...any)
}

type noopDebugLogger struct{}

func (noopDebugLogger) Debug(string, ...any) {}

// Compress bounds serialized to maxSize, truncating proportionally with a
// trailing marker if needed, then attempts gzip compression before
// base64-encoding the result. It returns the encoded payload, the
// compression descriptor, original/compressed sizes, and whether
// truncation occurred.
func Compress(serialized string, maxSize int, logger DebugLogger) (payload string, compression event.Compression, originalSize, compressedSize int, truncated bool) {
	if logger == nil {
		logger = noopDebugLogger{}
	}

	body := serialized
	originalSize = len(body)

	if maxSize > 0 && originalSize > maxSize {
		cut := maxSize - len(truncationMarker)
		if cut < 0 {
			cut = 0
		}
		body = body[:cut] + truncationMarker
		truncated = true
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(body)); err == nil && gz.Close() == nil {
		payload = base64.StdEncoding.EncodeToString(buf.Bytes())
		compression = event.CompressionGzip
		compressedSize = len(buf.Bytes())
		logger.Debug("domutil: snapshot compressed",
			"original", humanize.Bytes(uint64(originalSize)),
			"compressed", humanize.Bytes(uint64(compressedSize)))
		return payload, compression, originalSize, compressedSize, truncated
	}

	payload = base64.StdEncoding.EncodeToString([]byte(body))
	compression = event.CompressionNone
	compressedSize = len(body)
	logger.Debug("domutil: snapshot compression failed, storing uncompressed",
		"size", humanize.Bytes(uint64(originalSize)))
	return payload, compression, originalSize, compressedSize, truncated
}
