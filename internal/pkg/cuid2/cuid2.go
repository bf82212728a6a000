// Package cuid2 generates prefixed, time-sortable row identifiers such as
// "scan_1rK5iqA8kJ2mN4pQ6rS0tU3v".
package cuid2

import (
	"crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	timestampLength = 6
	randomLength    = 18
)

// New returns a prefixed identifier. The six characters after the prefix
// encode the creation time in base62, so IDs sort chronologically and
// cluster well in B-tree indexes; the remaining 18 characters are random.
func New(prefix string) string {
	return prefix + "_" + encodeTimestamp(time.Now().Unix()) + randomString(randomLength)
}

// encodeTimestamp encodes Unix seconds as a fixed-width base62 string.
// Six characters cover timestamps until roughly the year 3800.
func encodeTimestamp(seconds int64) string {
	buf := make([]byte, timestampLength)
	for i := timestampLength - 1; i >= 0; i-- {
		buf[i] = alphabet[seconds%62]
		seconds /= 62
	}
	return string(buf)
}

// randomString produces base62 characters from crypto/rand. Six bits are
// drawn per candidate and values of 62 or 63 are rejected, keeping the
// distribution uniform.
func randomString(length int) string {
	bytes := make([]byte, (length*6)/8+4)
	if _, err := rand.Read(bytes); err != nil {
		panic("cuid2: read random bytes: " + err.Error())
	}

	var b strings.Builder
	b.Grow(length)
	bitBuffer := uint64(0)
	bits := uint(0)
	idx := 0

	for b.Len() < length {
		for bits < 6 && idx < len(bytes) {
			bitBuffer = bitBuffer<<8 | uint64(bytes[idx])
			bits += 8
			idx++
		}

		value := (bitBuffer >> (bits - 6)) & 0x3f
		bits -= 6
		if value < 62 {
			b.WriteByte(alphabet[value])
		}

		if idx >= len(bytes) && b.Len() < length {
			if _, err := rand.Read(bytes); err != nil {
				panic("cuid2: read random bytes: " + err.Error())
			}
			idx = 0
			bitBuffer = 0
			bits = 0
		}
	}

	return b.String()
}
