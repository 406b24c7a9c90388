package nlp

import (
	"regexp"
	"strings"
)

// Rule tags, in application order.
const (
	RuleInterrogative = "interrogative"
	RuleCopula        = "copula"
	RuleOwner         = "owner"
	RulePossessive    = "possessive"
	RuleArticle       = "article"
)

// RetrievalState is the key and relation as the retrieval rules rewrite them.
type RetrievalState struct {
	Key      string
	Relation string
}

// RetrievalRule rewrites the state once. Rules never loop.
type RetrievalRule struct {
	Tag   string
	Apply func(RetrievalState) RetrievalState
}

var (
	interrogativePrefix = regexp.MustCompile(`^(what's|what|tell me|when does|where is|how does|who has|can you|do you know)[\s,]+`)
	copulaPrefix        = regexp.MustCompile(`^(is|are)\s+`)
	ownerPrefix         = regexp.MustCompile(`^my\s+`)
	possessivePhrase    = regexp.MustCompile(`^(\w+)'s\s+(.*)$`)
	articlePrefix       = regexp.MustCompile(`^(is|my|the)\s+`)
)

// RetrievalRules is the ordered rule list ExtractForRetrieve runs over a
// lowercased, trimmed question.
var RetrievalRules = []RetrievalRule{
	{Tag: RuleInterrogative, Apply: stripPrefix(interrogativePrefix)},
	{Tag: RuleCopula, Apply: stripPrefix(copulaPrefix)},
	{Tag: RuleOwner, Apply: stripPrefix(ownerPrefix)},
	{Tag: RulePossessive, Apply: splitPossessive},
	{Tag: RuleArticle, Apply: func(st RetrievalState) RetrievalState {
		st.Key = articlePrefix.ReplaceAllString(st.Key, "")
		st.Key = strings.TrimRight(st.Key, "?.! \t\n")
		return st
	}},
}

// Rule returns the retrieval rule with the given tag.
func Rule(tag string) (RetrievalRule, bool) {
	for _, r := range RetrievalRules {
		if r.Tag == tag {
			return r, true
		}
	}
	return RetrievalRule{}, false
}

func stripPrefix(re *regexp.Regexp) func(RetrievalState) RetrievalState {
	return func(st RetrievalState) RetrievalState {
		if loc := re.FindStringIndex(st.Key); loc != nil {
			st.Key = st.Key[loc[1]:]
		}
		return st
	}
}

func splitPossessive(st RetrievalState) RetrievalState {
	if m := possessivePhrase.FindStringSubmatch(st.Key); m != nil {
		st.Relation = m[1]
		st.Key = strings.TrimSpace(m[2])
	}
	return st
}
