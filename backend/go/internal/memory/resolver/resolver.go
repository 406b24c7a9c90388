// Package resolver finds the stored key closest to a misspelled one.
package resolver

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Cutoff is the minimum similarity ratio for a fuzzy match.
const Cutoff = 0.5

// Resolve returns desired itself (lowercased) when it is in existing, otherwise
// the most similar key with a ratio of at least Cutoff. On equal ratios the key
// that comes first in existing wins.
func Resolve(desired string, existing []string) (string, bool) {
	want := strings.ToLower(desired)
	for _, k := range existing {
		if k == want {
			return k, true
		}
	}

	best, bestRatio := "", 0.0
	a := strings.Split(want, "")
	for _, k := range existing {
		r := Ratio(a, strings.Split(k, ""))
		if r >= Cutoff && r > bestRatio {
			best, bestRatio = k, r
		}
	}
	return best, best != ""
}

// Ratio is the difflib similarity of two character sequences, 2*M/T.
func Ratio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}
