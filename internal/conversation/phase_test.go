package conversation

import "testing"

func TestPhaseAdvancesForwardOnly(t *testing.T) {
	st := freshState()

	chain := []Phase{PhaseMoodConfirmation, PhaseReflecting, PhaseQuestioning, PhaseClosed}
	for _, p := range chain {
		if err := AdvancePhase(st, p); err != nil {
			t.Fatalf("AdvancePhase(%q) error = %v", p, err)
		}
	}
	if st.Phase != PhaseClosed {
		t.Fatalf("Phase = %q, want closed", st.Phase)
	}

	if err := AdvancePhase(st, PhaseListening); err == nil {
		t.Fatalf("backward transition from closed should fail")
	}
}

func TestPhaseSkippingStagesIsAllowed(t *testing.T) {
	st := freshState()
	if err := AdvancePhase(st, PhaseQuestioning); err != nil {
		t.Fatalf("AdvancePhase(questioning) error = %v", err)
	}
}

func TestPhaseStayingInPlaceIsANoOp(t *testing.T) {
	st := freshState()
	if err := AdvancePhase(st, PhaseListening); err != nil {
		t.Fatalf("AdvancePhase(same phase) error = %v", err)
	}
}

func TestPhaseRejectsUnknown(t *testing.T) {
	st := freshState()
	if err := AdvancePhase(st, Phase("daydreaming")); err == nil {
		t.Fatalf("unknown phase should be rejected")
	}
}
