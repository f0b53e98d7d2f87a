package conversation

// The theme and tone vocabularies are fixed, closed sets. Declaration order
// matters: when two labels reach the same match count the earlier-declared
// label wins, so the order below is part of the contract.
//
// Matching is literal substring counting with no stemming, which is why
// inflected forms ("focus", "focused") appear explicitly in the lists.

type vocabularyEntry struct {
	Label    string
	Keywords []string
}

var themeVocabulary = []vocabularyEntry{
	{"focus", []string{"focus", "focused", "focusing", "concentrate", "concentration", "attention", "deep work"}},
	{"energy", []string{"energy", "low energy", "no energy", "drained", "recharge", "rested"}},
	{"motivation", []string{"motivation", "motivated", "unmotivated", "drive", "driven", "inspired"}},
	{"self-control", []string{"self-control", "self control", "discipline", "disciplined", "willpower", "impulse", "temptation"}},
	{"routine", []string{"routine", "habit", "habits", "schedule", "morning ritual", "consistency"}},
	{"gym", []string{"gym", "workout", "worked out", "training", "exercise", "lifting", "cardio"}},
	{"work", []string{"work", "job", "office", "meeting", "meetings", "deadline", "boss", "colleague"}},
	{"projects", []string{"project", "projects", "side project", "building", "shipping", "launch"}},
	{"emotions", []string{"emotion", "emotions", "feeling", "feelings", "overwhelmed", "anxious", "lonely"}},
	{"guilt", []string{"guilt", "guilty", "ashamed", "shame", "regret", "let myself down"}},
	{"progress", []string{"progress", "improvement", "improving", "growth", "getting better", "small win"}},
	{"distractions", []string{"distraction", "distractions", "distracted", "scrolling", "social media", "procrastinating", "procrastination"}},
}

var toneVocabulary = []vocabularyEntry{
	{"frustrated", []string{"frustrated", "frustrating", "annoyed", "annoying", "irritated", "fed up", "stuck"}},
	{"calm", []string{"calm", "peaceful", "relaxed", "settled", "steady", "at ease"}},
	{"energetic", []string{"energetic", "pumped", "excited", "alive", "fired up"}},
	{"tired", []string{"tired", "exhausted", "sleepy", "worn out", "burned out", "burnt out"}},
	{"guilty", []string{"guilty", "ashamed", "regretful", "my fault"}},
	{"positive", []string{"good", "great", "happy", "proud", "grateful", "hopeful"}},
	{"negative", []string{"bad", "terrible", "awful", "hopeless", "miserable", "pointless"}},
}

// reasoningWords signal that a short-ish reply actually engages with the
// question that was asked, rather than deflecting it.
var reasoningWords = []string{
	"because", "since", "when", "what", "how", "why",
	"feels", "feel", "think", "thought",
}

// Themes returns the theme vocabulary labels in declaration order.
func Themes() []string {
	out := make([]string, len(themeVocabulary))
	for i, e := range themeVocabulary {
		out[i] = e.Label
	}
	return out
}

// Tones returns the tone vocabulary labels in declaration order.
func Tones() []string {
	out := make([]string, len(toneVocabulary))
	for i, e := range toneVocabulary {
		out[i] = e.Label
	}
	return out
}

// IsTheme reports whether label belongs to the theme vocabulary.
func IsTheme(label string) bool {
	for _, e := range themeVocabulary {
		if e.Label == label {
			return true
		}
	}
	return false
}
