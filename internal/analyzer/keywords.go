package analyzer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// keywordMatcher wraps an Aho-Corasick automaton over a lowercased
// keyword dictionary, so noise and manipulation checks stay a single
// pass over the text regardless of dictionary size.
type keywordMatcher struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}

	m := &keywordMatcher{keywords: normalized}
	if len(normalized) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return m
}

// count returns how many distinct dictionary keywords occur in the
// lowercased text.
func (m *keywordMatcher) count(loweredText string) int {
	if m.matcher == nil {
		return 0
	}
	return len(m.matcher.Match([]byte(loweredText)))
}

func (m *keywordMatcher) contains(loweredText string) bool {
	return m.count(loweredText) > 0
}
