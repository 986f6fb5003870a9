package domain

import "testing"

func TestParseStatusClosedSet(t *testing.T) {
	known := []ComplaintStatus{
		StatusWaitingAssignment,
		StatusAssigned,
		StatusInProgress,
		StatusResolved,
		StatusClosed,
		StatusEscalatedLevel1,
		StatusEscalatedLevel2,
	}
	for _, status := range known {
		if got := ParseStatus(string(status)); got != status {
			t.Fatalf("ParseStatus(%q) = %q", status, got)
		}
	}
}

func TestParseStatusUnknownVariants(t *testing.T) {
	for _, raw := range []string{"", "ARCHIVED", "waiting_assignment", "Assigned", "UNKNOWN"} {
		if got := ParseStatus(raw); got != StatusUnknown {
			t.Fatalf("ParseStatus(%q) = %q, want UNKNOWN", raw, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !StatusClosed.IsTerminal() {
		t.Fatal("CLOSED must be terminal")
	}
	for _, status := range []ComplaintStatus{StatusWaitingAssignment, StatusAssigned, StatusInProgress, StatusResolved, StatusEscalatedLevel1, StatusEscalatedLevel2} {
		if status.IsTerminal() {
			t.Fatalf("%s must not be terminal", status)
		}
	}
}
