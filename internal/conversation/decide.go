package conversation

import "fmt"

// The decision function is an ordered rule cascade: the first rule whose
// predicate holds produces the move and the rest are never evaluated. The
// order is a business rule, not an implementation detail, and it is encoded
// as data so the cascade stays auditable.
//
// Rule "reframe_short_deflection" is dead in the current order: the plain
// short-message rule above it catches every short message first. That
// shadowing is inherited behavior and is pinned by a test rather than fixed
// here; reordering it would change what users see after one-word replies.
type decisionRule struct {
	Name string
	When func(ex Extraction, st *State) bool
	Move func(ex Extraction, st *State) NextMove
}

var decisionCascade = []decisionRule{
	{
		Name: "reflect_long_share",
		When: func(ex Extraction, _ *State) bool {
			return ex.MessageLength == LengthLong
		},
		Move: func(ex Extraction, st *State) NextMove {
			mv := NextMove{
				Action:     ActionReflect,
				Reflection: longShareReflection(ex.TouchedTheme),
			}
			if ex.TouchedTheme != "" && !st.HasExplored(ex.TouchedTheme) {
				mv.Question = fmt.Sprintf("What part of %s feels most important right now?", ex.TouchedTheme)
			}
			return mv
		},
	},
	{
		Name: "offer_choice_short",
		When: func(ex Extraction, _ *State) bool {
			return ex.MessageLength == LengthShort
		},
		Move: func(_ Extraction, st *State) NextMove {
			mv := NextMove{Action: ActionOfferChoice}
			if len(st.UnexploredThemes) >= 1 {
				mv.ThemesToSuggest = append(mv.ThemesToSuggest, st.UnexploredThemes[0])
			}
			if len(st.UnexploredThemes) >= 2 {
				mv.ThemesToSuggest = append(mv.ThemesToSuggest, st.UnexploredThemes[1])
				mv.Question = fmt.Sprintf("Would you like to explore %s or %s?", mv.ThemesToSuggest[0], mv.ThemesToSuggest[1])
			}
			return mv
		},
	},
	{
		Name: "reframe_short_deflection",
		When: func(ex Extraction, st *State) bool {
			return ex.MessageLength == LengthShort &&
				!ex.AnsweredPrevious &&
				len(st.AskedQuestions) > 0
		},
		Move: func(_ Extraction, _ *State) NextMove {
			// Deliberately no question: a reframe is a gentle acknowledgment
			// that releases the pressure of the one that went unanswered.
			return NextMove{
				Action:     ActionReframe,
				Reflection: "That's okay. There's no rush, we can just sit with it.",
			}
		},
	},
	{
		Name: "close_all_explored",
		When: func(_ Extraction, st *State) bool {
			return len(st.UnexploredThemes) == 0
		},
		Move: func(_ Extraction, st *State) NextMove {
			return NextMove{
				Action:     ActionClose,
				Reflection: closeReflection(st),
				Question:   "Is there anything else you want to share before we wrap up?",
			}
		},
	},
	{
		Name: "default",
		When: func(_ Extraction, _ *State) bool {
			return true
		},
		Move: func(ex Extraction, st *State) NextMove {
			if ex.TouchedTheme != "" && !st.HasExplored(ex.TouchedTheme) {
				return NextMove{
					Action:   ActionAskGentle,
					Question: fmt.Sprintf("Could you tell me more about %s?", ex.TouchedTheme),
				}
			}
			mv := NextMove{
				Action:     ActionReflect,
				Reflection: "I'm here with you. Take whatever time you need.",
			}
			if len(st.UnexploredThemes) > 0 {
				mv.Question = fmt.Sprintf("How has %s been for you lately?", st.UnexploredThemes[0])
			}
			return mv
		},
	},
}

// Decide maps a turn's extraction and the current state to the assistant's
// next move. Pure and total: it always returns a valid action.
func Decide(ex Extraction, st *State) NextMove {
	for _, rule := range decisionCascade {
		if rule.When(ex, st) {
			mv := rule.Move(ex, st)
			mv.Rule = rule.Name
			return mv
		}
	}
	// The cascade ends in a catch-all, so this is unreachable.
	return NextMove{Action: ActionReflect, Rule: "fallthrough"}
}

func longShareReflection(theme string) string {
	if theme == "" {
		return "Thank you for sharing all of that. It sounds like there's a lot on your mind today."
	}
	return fmt.Sprintf("It sounds like %s has been taking up a lot of space for you today.", theme)
}

func closeReflection(st *State) string {
	if st.Anchor != "" {
		return fmt.Sprintf("We've covered a lot today, starting from %s. You showed up for all of it.", st.Anchor)
	}
	return "We've covered a lot of ground today. You showed up for all of it."
}
