package common

import (
	"strings"
	"unicode"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// TitleWords upper-cases the first letter of every word and lower-cases the rest.
// A word starts after any non-letter, so "kota-baru" becomes "Kota-Baru".
func TitleWords(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevLetter := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		sb.WriteRune(r)
		prevLetter = false
	}
	return sb.String()
}

// FirstSegment returns the trimmed text before the first comma of an address.
func FirstSegment(address string) string {
	if i := strings.IndexByte(address, ','); i >= 0 {
		address = address[:i]
	}
	return strings.TrimSpace(address)
}
