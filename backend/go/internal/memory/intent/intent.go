// Package intent maps a raw chat message to the memory operation it asks for.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the memory operation requested by a message.
type Intent string

const (
	Store    Intent = "store"
	Update   Intent = "update"
	Delete   Intent = "delete"
	Retrieve Intent = "retrieve"
)

type rule struct {
	tag    string
	intent Intent
	match  func(raw string) bool
}

var retrievalKeyword = regexp.MustCompile(`\b(what|tell|show|give|fetch)\b`)

// rules are checked in order; the first match wins.
var rules = []rule{
	{tag: "@store", intent: Store, match: contains("@store")},
	{tag: "@update", intent: Update, match: contains("@update")},
	{tag: "@delete", intent: Delete, match: contains("@delete")},
	{tag: "question", intent: Retrieve, match: func(raw string) bool {
		return retrievalKeyword.MatchString(strings.ToLower(raw))
	}},
}

// Classify never fails; anything that is not a command is a retrieval.
func Classify(raw string) Intent {
	in, _ := classify(raw)
	return in
}

// Explain reports the intent together with the tag of the rule that chose it.
// The tag is "default" when no rule matched.
func Explain(raw string) (Intent, string) {
	return classify(raw)
}

func classify(raw string) (Intent, string) {
	for _, r := range rules {
		if r.match(raw) {
			return r.intent, r.tag
		}
	}
	return Retrieve, "default"
}

func contains(token string) func(string) bool {
	return func(raw string) bool { return strings.Contains(raw, token) }
}
