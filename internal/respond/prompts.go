package respond

import (
	"fmt"
	"strings"

	"github.com/elenacorti/wisp/internal/conversation"
)

// systemPrompt fixes the output contract the validator enforces. Keeping the
// contract in the prompt keeps regeneration cheap: most completions pass on
// the first try.
const systemPrompt = `You are Wisp, a warm journaling companion. You reply in plain text with no lists or markdown.

Output contract, in order:
1. One short reaction sentence to what the user shared. Never start with a question.
2. Optionally one sentence weaving in a remembered detail; keep any such memory mention to eight words or fewer.
3. At most one question, and if present it must be the final sentence.

Stay under sixty words. Be gentle and concrete, never clinical.`

var actionDirectives = map[conversation.Action]string{
	conversation.ActionReflect:     "Mirror back what the user shared so they feel heard.",
	conversation.ActionAskGentle:   "Invite the user to say more, softly and without pressure.",
	conversation.ActionOfferChoice: "Offer the listed topics as a choice of where to go next.",
	conversation.ActionReframe:     "Acknowledge without asking anything; release the pressure of the unanswered question.",
	conversation.ActionClose:       "Wrap up the session warmly and leave the door open.",
}

func buildPrompt(move conversation.NextMove, st *conversation.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Next move: %s. %s\n", move.Action, actionDirectives[move.Action])
	if move.Reflection != "" {
		fmt.Fprintf(&b, "Reflection to convey (reword naturally): %s\n", move.Reflection)
	}
	if move.Question != "" {
		fmt.Fprintf(&b, "Question to ask (reword naturally, keep the intent): %s\n", move.Question)
	} else {
		b.WriteString("Do not ask any question this turn.\n")
	}
	if len(move.ThemesToSuggest) > 0 {
		fmt.Fprintf(&b, "Topics to offer: %s\n", strings.Join(move.ThemesToSuggest, ", "))
	}

	if st.Tone != "" {
		fmt.Fprintf(&b, "The user currently sounds %s.\n", st.Tone)
	}
	if st.Anchor != "" {
		fmt.Fprintf(&b, "Today's session started around %s.\n", st.Anchor)
	}
	if len(st.Context) > 0 {
		b.WriteString("Things remembered about the user:\n")
		for _, c := range st.Context {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	return b.String()
}

func correctiveNote(violations []string) string {
	return fmt.Sprintf(
		"\nYour previous reply broke the output contract (%s). Rewrite it and follow the contract exactly.",
		strings.Join(violations, "; "),
	)
}

// fallbackLine deterministically renders the move's own templated content
// when the model is unavailable or keeps violating the contract.
func fallbackLine(move conversation.NextMove) string {
	var parts []string
	if move.Reflection != "" {
		parts = append(parts, move.Reflection)
	}
	if move.Question != "" {
		parts = append(parts, move.Question)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	switch move.Action {
	case conversation.ActionOfferChoice:
		if len(move.ThemesToSuggest) > 0 {
			return fmt.Sprintf("We could stay with %s for a moment, if you like.", strings.Join(move.ThemesToSuggest, " or "))
		}
		return "We can go wherever you like from here."
	case conversation.ActionClose:
		return "Thank you for showing up today. We can pick this up again tomorrow."
	default:
		return "I'm here with you. Take whatever time you need."
	}
}
