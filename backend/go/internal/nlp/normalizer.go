// Package nlp turns free text into the keys, relations and values the memory
// service stores. Everything here is regex and table driven; there is no model.
package nlp

import (
	"regexp"
	"strings"
)

var (
	leadingMy   = regexp.MustCompile(`(?i)^my\s+`)
	possessiveS = regexp.MustCompile(`\b(\w+)'s\b`)
)

// Normalize canonicalizes a key fragment: a leading "my " is dropped, the text
// is lowercased, every "'s" is removed and runs of whitespace collapse to one space.
//
// The steps are repeated until nothing changes, so Normalize(Normalize(x)) ==
// Normalize(x) for every input.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	for {
		next := leadingMy.ReplaceAllString(s, "")
		next = strings.ReplaceAll(next, "'s", "")
		next = strings.Join(strings.Fields(next), " ")
		if next == s {
			return s
		}
		s = next
	}
}

// PreprocessQuery is the strict cleanup used for fallback topics. Possessives
// collapse to their owner word, ASCII punctuation is removed and English
// stopwords are dropped. It is never used to build storage keys.
func PreprocessQuery(raw string) string {
	s := possessiveS.ReplaceAllString(raw, "$1")
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if isASCIIPunct(r) {
			return -1
		}
		return r
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !IsStopword(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isASCIIPunct(r rune) bool {
	return r < 0x80 && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r)
}
