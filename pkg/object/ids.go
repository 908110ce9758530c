package object

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ChangeID is a 32-character hex id that stays stable across rewrites of a
// commit.
type ChangeID string

// ZeroChangeID is the change id of the virtual root commit.
const ZeroChangeID ChangeID = "00000000000000000000000000000000"

// NewChangeID returns a random change id built from a version 4 UUID.
func NewChangeID() (ChangeID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate change id: %w", err)
	}
	return ChangeID(hex.EncodeToString(u[:])), nil
}

// Hex returns the id in standard hex.
func (c ChangeID) Hex() string { return string(c) }

// ReverseHex returns the id in the reverse hex alphabet used for display.
func (c ChangeID) ReverseHex() string { return ReverseHex(string(c)) }

// ReverseHex maps each hex digit of value v to the letter 'z'-v, so "0"
// becomes "z" and "f" becomes "k". Ordering of the encoded strings is the
// inverse of the ordering of the input.
func ReverseHex(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		v, ok := hexValue(s[i])
		if !ok {
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte('z' - v)
	}
	return b.String()
}

// DecodeReverseHex converts a reverse hex string back to standard hex.
// It reports false when s contains a character outside 'k'..'z'.
func DecodeReverseHex(s string) (string, bool) {
	const digits = "0123456789abcdef"
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'K' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c < 'k' || c > 'z' {
			return "", false
		}
		out[i] = digits['z'-c]
	}
	return string(out), true
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
