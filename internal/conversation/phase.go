package conversation

import "fmt"

// Session phases advance monotonically along a single chain. No backward
// transition exists; closed is terminal.
var phaseOrder = map[Phase]int{
	PhaseListening:        0,
	PhaseMoodConfirmation: 1,
	PhaseReflecting:       2,
	PhaseQuestioning:      3,
	PhaseClosed:           4,
}

// ValidPhase reports whether p is one of the defined session phases.
func ValidPhase(p Phase) bool {
	_, ok := phaseOrder[p]
	return ok
}

// CanTransition reports whether a session may move from one phase to another.
// Staying in place is allowed; moving backward is not.
func CanTransition(from, to Phase) bool {
	a, okA := phaseOrder[from]
	b, okB := phaseOrder[to]
	return okA && okB && b >= a
}

// AdvancePhase moves the record forward to the given phase. It rejects
// unknown phases and backward transitions.
func AdvancePhase(st *State, to Phase) error {
	if !ValidPhase(to) {
		return fmt.Errorf("unknown session phase %q", to)
	}
	if !CanTransition(st.Phase, to) {
		return fmt.Errorf("session phase cannot move from %q back to %q", st.Phase, to)
	}
	st.Phase = to
	st.Touch()
	return nil
}
