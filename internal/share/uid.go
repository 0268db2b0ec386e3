package share

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// UIDLength is the length of every public share identifier.
const UIDLength = 8

// uidAlphabet omits 0, O, I, 1 and l; the uid is the one
// identifier humans read off a screen and retype.
const uidAlphabet = "23456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// NewUID generates one candidate public uid: UIDLength characters, each
// picked by a cryptographically random byte modulo the alphabet size.
//
// A single draw is not guaranteed unique; callers must check the store and
// redraw on collision (see ShareService).
func NewUID() (string, error) {
	buf := make([]byte, UIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("share: reading random bytes: %w", err)
	}

	out := make([]byte, UIDLength)
	for i, b := range buf {
		out[i] = uidAlphabet[int(b)%len(uidAlphabet)]
	}
	return string(out), nil
}

// ValidUID reports whether s is a well-formed public uid. Used to reject
// malformed identifiers before any store lookup.
func ValidUID(s string) bool {
	if len(s) != UIDLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(uidAlphabet, r) {
			return false
		}
	}
	return true
}
