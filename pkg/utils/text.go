package utils

import "unicode/utf8"

const Ellipsis = "..."

// Preview returns the first n runes of s followed by Ellipsis. The marker
// is appended even when s is shorter than n.
func Preview(s string, n int) string {
	return TruncateRunes(s, n) + Ellipsis
}

// TruncateRunes cuts s to at most n runes without splitting a character.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
