package conversation

import "strings"

// Word-count thresholds for the message-length buckets.
const (
	shortBelow  = 10
	mediumBelow = 30
)

// answeredMinWords is the floor below which a reply never counts as having
// answered the previous question.
const answeredMinWords = 5

var (
	themeMatcher = mustKeywordMatcher(themeVocabulary)
	toneMatcher  = mustKeywordMatcher(toneVocabulary)
)

// Extract classifies a raw user message. Pure and deterministic: no I/O, no
// state. lastQuestion is the question most recently posed to the user, or ""
// when none was asked; the answered-previous heuristic only runs when it is
// set.
func Extract(message, lastQuestion string) Extraction {
	lowered := strings.ToLower(message)
	wordCount := len(strings.Fields(lowered))

	ex := Extraction{
		WordCount:     wordCount,
		MessageLength: bucketLength(wordCount),
		TouchedTheme:  themeMatcher.Best(lowered),
		Tone:          toneMatcher.Best(lowered),
	}

	if lastQuestion != "" {
		ex.AnsweredPrevious = wordCount > answeredMinWords &&
			(containsReasoningWord(lowered) || ex.MessageLength != LengthShort)
	}
	return ex
}

func bucketLength(wordCount int) Length {
	switch {
	case wordCount < shortBelow:
		return LengthShort
	case wordCount < mediumBelow:
		return LengthMedium
	default:
		return LengthLong
	}
}

func containsReasoningWord(lowered string) bool {
	for _, w := range reasoningWords {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}
