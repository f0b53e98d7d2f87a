package conversation

import (
	"fmt"
	"strings"

	"github.com/coregx/ahocorasick"
)

// keywordMatcher counts substring occurrences of every vocabulary keyword in
// a message with a single Aho-Corasick pass, then picks the label with the
// strictly greatest count. Ties go to the earlier-declared label.
type keywordMatcher struct {
	ac     *ahocorasick.Automaton
	labels []string
	// patternLabel maps automaton pattern index -> index into labels.
	patternLabel []int
}

func newKeywordMatcher(vocab []vocabularyEntry) (*keywordMatcher, error) {
	m := &keywordMatcher{}
	var patterns []string
	seen := make(map[string]bool)
	for i, entry := range vocab {
		m.labels = append(m.labels, entry.Label)
		for _, kw := range entry.Keywords {
			key := strings.ToLower(kw)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			patterns = append(patterns, key)
			m.patternLabel = append(m.patternLabel, i)
		}
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("compile keyword automaton: %w", err)
	}
	m.ac = ac
	return m, nil
}

func mustKeywordMatcher(vocab []vocabularyEntry) *keywordMatcher {
	m, err := newKeywordMatcher(vocab)
	if err != nil {
		panic(err)
	}
	return m
}

// Best returns the winning label for lowered text, or "" when no keyword
// matches at all.
func (m *keywordMatcher) Best(lowered string) string {
	counts := m.counts(lowered)

	best := -1
	bestCount := 0
	for i, c := range counts {
		if c > bestCount {
			best = i
			bestCount = c
		}
	}
	if best < 0 {
		return ""
	}
	return m.labels[best]
}

func (m *keywordMatcher) counts(lowered string) []int {
	counts := make([]int, len(m.labels))
	for _, hit := range m.ac.FindAllOverlapping([]byte(lowered)) {
		counts[m.patternLabel[hit.PatternID]]++
	}
	return counts
}
