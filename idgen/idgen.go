// Package idgen provides pluggable ID generation for omnitrack.
//
// A Generator is a plain function, so a component can take its ID strategy
// from the caller: the tracker's event ids and the telemetry audit sink's
// row ids are configurable this way. Session, client and batch ids use
// the fixed generators in this package.
package idgen

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// NanoID returns a Generator that produces base-36 IDs of the given length.
// Short, URL-safe, fast. Use where a full UUID would be too verbose.
func NanoID(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		b := make([]byte, length)
		for i := range b {
			b[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return string(b)
	}
}

// UUIDv4 returns a Generator that produces RFC 4122 UUID v4 strings.
func UUIDv4() Generator {
	return func() string {
		return uuid.Must(uuid.NewRandom()).String()
	}
}

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// Time-sortable, globally unique. Preferred for ids that benefit from
// roughly chronological ordering, such as batch ids.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Timestamped returns a Generator that produces IDs in the format
// "20060102T150405Z_<suffix>" where suffix comes from the inner generator.
func Timestamped(gen Generator) Generator {
	return func() string {
		return time.Now().UTC().Format("20060102T150405Z") + "_" + gen()
	}
}

// SessionID returns a Generator producing ids of the form
// "session-<epoch-ms>-<random base36 suffix>", matching the session
// identifier format expected by clients reading omnitrack's storage keys.
func SessionID() Generator {
	suffix := NanoID(12)
	return func() string {
		ms := time.Now().UnixMilli()
		return "session-" + strconv.FormatInt(ms, 10) + "-" + suffix()
	}
}

// Default is the package default: UUIDv4, matching the identifier format
// used throughout the wire protocol for event and client ids.
var Default Generator = UUIDv4()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// MustParse validates a UUID string and returns it or panics.
func MustParse(s string) string {
	_ = uuid.MustParse(s)
	return s
}

// Parse validates a UUID string and returns it or an error.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}
