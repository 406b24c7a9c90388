package nlp

import "strings"

// BuildStorageKey is the only place a relation and a key are combined.
// The result is "<relation> <key>" when relation is set, otherwise "<key>".
func BuildStorageKey(baseKey, relation string) string {
	key := strings.ToLower(strings.TrimSpace(baseKey))
	rel := strings.ToLower(strings.TrimSpace(relation))
	if rel == "" || key == "" {
		return rel + key
	}
	return rel + " " + key
}
