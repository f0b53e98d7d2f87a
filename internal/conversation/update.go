package conversation

// ApplyExtraction merges a turn's extraction into the state record. The rules
// run in a fixed order; callers persist the mutated record as a single write.
func ApplyExtraction(st *State, ex Extraction, lastQuestion string) {
	if ex.TouchedTheme != "" {
		// First theme of the session becomes the anchor and stays there.
		if st.Anchor == "" {
			st.Anchor = ex.TouchedTheme
		}
		markExplored(st, ex.TouchedTheme)
	}

	if ex.Tone != "" {
		st.Tone = ex.Tone
	}

	if lastQuestion != "" {
		logQuestion(st, lastQuestion)
	}

	// Mode transitions only apply once the session is past the listening
	// stages; earlier phases keep their listener semantics.
	if st.Phase == PhaseQuestioning || st.Phase == PhaseClosed {
		switch {
		case ex.MessageLength == LengthLong:
			st.Mode = ModeDeepening
		case ex.MessageLength == LengthShort && len(st.ExploredThemes) > 0:
			st.Mode = ModeExploring
		}
	}

	st.Touch()
}

// markExplored moves theme from the unexplored to the explored set. A theme
// crosses over at most once and never moves back.
func markExplored(st *State, theme string) {
	if st.HasExplored(theme) {
		return
	}
	st.ExploredThemes = append(st.ExploredThemes, theme)
	for i, t := range st.UnexploredThemes {
		if t == theme {
			st.UnexploredThemes = append(st.UnexploredThemes[:i], st.UnexploredThemes[i+1:]...)
			break
		}
	}
}

func logQuestion(st *State, question string) {
	for _, q := range st.AskedQuestions {
		if q == question {
			return
		}
	}
	st.AskedQuestions = append(st.AskedQuestions, question)
}
