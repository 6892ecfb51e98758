// Package vocab normalizes the free-text vocabulary found in archived
// pages and datasets: country names, Hijri month names, and status text.
package vocab

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuationReplacer = strings.NewReplacer(
	".", "",
	"'", "",
	"’", "",
	"`", "",
	"-", " ",
	"–", " ",
	"—", " ",
	"_", " ",
)

// Fold reduces s to a comparison key: diacritics removed, lowercased,
// dots and apostrophes dropped, dashes turned into spaces, whitespace
// collapsed. "Türkiye" and "turkiye" fold to the same key, as do
// "S. Africa" and "S Africa".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = punctuationReplacer.Replace(out)
	out = strings.Join(strings.Fields(out), " ")
	return strings.Trim(out, " ,:;")
}

// wordIndex returns the index of the first occurrence of w in s that is
// bounded by non-letters on both sides, or -1.
func wordIndex(s, w string) int {
	if w == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(s[offset:], w)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(w)
		if isBoundary(s, start-1) && isBoundary(s, end) {
			return start
		}
		offset = start + 1
	}
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}

// ContainsWord reports whether w occurs in s as a whole word
func ContainsWord(s, w string) bool {
	return wordIndex(s, w) >= 0
}
