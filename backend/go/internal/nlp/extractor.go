package nlp

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoExtraction is returned when no clause of a command body yields a usable
// key. It is different from a body that was never parsed.
var ErrNoExtraction = errors.New("no valid key-value pair found")

// Extraction is one parsed store or update clause.
type Extraction struct {
	BaseKey  string
	Value    string
	Relation string
}

// KeyRef names a fact by base key and optional relation.
type KeyRef struct {
	BaseKey  string
	Relation string
}

var (
	commandToken  = regexp.MustCompile(`@(store|update|delete)`)
	clauseSplit   = regexp.MustCompile(`(?i)\s+and\s+`)
	connector     = regexp.MustCompile(`(?is)^(.*?)(?:\bis\b|\bto\b|=)\s*(.*)$`)
	possessiveKey = regexp.MustCompile(`^(\w+)'s\s+(.*)$`)
)

// ExtractForStore parses "<key> is|to|= <value>" clauses joined by "and".
// Keys are lowercased, values keep their case. Clauses without a connector,
// key or value are skipped.
func ExtractForStore(body string) ([]Extraction, error) {
	var out []Extraction
	for _, clause := range clauses(body) {
		m := connector.FindStringSubmatch(clause)
		if m == nil {
			continue
		}
		ref := splitKey(m[1])
		value := strings.TrimSpace(m[2])
		if ref.BaseKey == "" || value == "" {
			continue
		}
		out = append(out, Extraction{BaseKey: ref.BaseKey, Value: value, Relation: ref.Relation})
	}
	if len(out) == 0 {
		return nil, ErrNoExtraction
	}
	return out, nil
}

// ExtractForDelete parses bare keys joined by "and".
func ExtractForDelete(body string) ([]KeyRef, error) {
	var out []KeyRef
	for _, clause := range clauses(body) {
		ref := splitKey(clause)
		if ref.BaseKey == "" {
			continue
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		return nil, ErrNoExtraction
	}
	return out, nil
}

// ExtractForRetrieve runs RetrievalRules over the question. The returned key
// may be empty.
func ExtractForRetrieve(query string) KeyRef {
	st := RetrievalState{Key: strings.ToLower(strings.TrimSpace(query))}
	for _, rule := range RetrievalRules {
		st = rule.Apply(st)
	}
	return KeyRef{BaseKey: strings.TrimSpace(st.Key), Relation: st.Relation}
}

// clauses strips command tokens and a leading "my ", then splits on "and".
func clauses(body string) []string {
	s := commandToken.ReplaceAllString(body, "")
	s = leadingMy.ReplaceAllString(strings.TrimSpace(s), "")
	var out []string
	for _, c := range clauseSplit.Split(s, -1) {
		c = leadingMy.ReplaceAllString(strings.TrimSpace(c), "")
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func splitKey(raw string) KeyRef {
	key := strings.ToLower(strings.TrimSpace(raw))
	if m := possessiveKey.FindStringSubmatch(key); m != nil {
		return KeyRef{BaseKey: strings.TrimSpace(m[2]), Relation: m[1]}
	}
	return KeyRef{BaseKey: key}
}
