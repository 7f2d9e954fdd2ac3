// Package shortid generates the short, URL-safe identifiers that key QR
// codes. Identifiers are fixed-length lowercase hex drawn from a
// cryptographically strong source: collision resistance is the requirement,
// not unpredictability. Six random bytes (48 bits) keep the collision
// probability negligible across millions of codes.
package shortid

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// DefaultByteLen is the number of random bytes per identifier; hex encoding
// doubles it, yielding 12-character ids.
const DefaultByteLen = 6

// ErrRandomnessUnavailable is returned when the underlying entropy source
// cannot produce enough bytes. It should be practically unreachable on any
// supported platform.
var ErrRandomnessUnavailable = errors.New("random source unavailable")

// Generator produces short identifiers from a random source. The zero value
// is not usable; construct with New.
type Generator struct {
	src     io.Reader
	byteLen int
}

// New returns a Generator backed by crypto/rand producing ids of
// DefaultByteLen random bytes.
func New() Generator {
	return Generator{src: rand.Reader, byteLen: DefaultByteLen}
}

// NewWithSource returns a Generator reading entropy from src. byteLen values
// below 1 are coerced to DefaultByteLen. Intended for tests that need a
// deterministic or failing source.
func NewWithSource(src io.Reader, byteLen int) Generator {
	if byteLen < 1 {
		byteLen = DefaultByteLen
	}
	return Generator{src: src, byteLen: byteLen}
}

// Generate returns a new lowercase hex identifier. It has no side effects and
// never returns a partial id: on a short or failing read it returns
// ErrRandomnessUnavailable (wrapped with the underlying cause).
func (g Generator) Generate() (string, error) {
	buf := make([]byte, g.byteLen)
	if _, err := io.ReadFull(g.src, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomnessUnavailable, err)
	}
	return hex.EncodeToString(buf), nil
}
