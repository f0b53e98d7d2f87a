package respond

import (
	"strings"

	"github.com/elenacorti/wisp/internal/conversation"
)

const maxReplyWords = 60

// memoryMarkers flag a sentence as echoing remembered material; such echoes
// must stay short so the reply leads with the present, not the archive.
var memoryMarkers = []string{"yesterday", "you mentioned", "last time", "you said"}

const memoryMentionMaxWords = 8

// validateShape checks a candidate reply against the output contract and
// returns the list of violations, empty when the reply is acceptable.
func validateShape(text string, move conversation.NextMove) []string {
	var violations []string
	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		return []string{"reply is empty"}
	}

	questions := strings.Count(trimmed, "?")
	if questions > 1 {
		violations = append(violations, "more than one question")
	}

	wantQuestion := move.Question != ""
	if wantQuestion && questions == 0 {
		violations = append(violations, "expected exactly one question")
	}
	if !wantQuestion && questions > 0 {
		violations = append(violations, "asked a question on a no-question move")
	}

	if questions > 0 {
		if !strings.HasSuffix(strings.TrimRight(trimmed, `"') `), "?") {
			violations = append(violations, "question is not the final sentence")
		}
		// A reaction sentence must land before any question.
		first := strings.IndexAny(trimmed, ".!?")
		if first >= 0 && trimmed[first] == '?' {
			violations = append(violations, "reply opens with a question instead of a reaction")
		}
	}

	if n := len(strings.Fields(trimmed)); n > maxReplyWords {
		violations = append(violations, "reply is too long")
	}

	for _, sentence := range splitSentences(trimmed) {
		lowered := strings.ToLower(sentence)
		for _, marker := range memoryMarkers {
			if strings.Contains(lowered, marker) && len(strings.Fields(sentence)) > memoryMentionMaxWords {
				violations = append(violations, "memory mention longer than eight words")
				break
			}
		}
	}

	return violations
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}
