package convo

import "testing"

func TestSessionMemoryEndVisit(t *testing.T) {
	m := NewSessionMemory()
	if got := m.TotalVisitors(); got != 1 {
		t.Fatalf("TotalVisitors() = %d, want 1", got)
	}

	if got := m.EndVisit(3); got != 2 {
		t.Errorf("EndVisit(3) = %d, want 2", got)
	}
	sums := m.Summaries()
	if len(sums) != 1 || sums[0] != "Visitor 2: Had 3 exchanges." {
		t.Errorf("Summaries() = %v, want [Visitor 2: Had 3 exchanges.]", sums)
	}

	// A visit without exchanges still advances the count.
	if got := m.EndVisit(0); got != 3 {
		t.Errorf("EndVisit(0) = %d, want 3", got)
	}
	if got := len(m.Summaries()); got != 1 {
		t.Errorf("len(Summaries()) = %d, want 1", got)
	}
}

func TestSessionMemorySummariesCopy(t *testing.T) {
	m := NewSessionMemory()
	m.EndVisit(1)

	sums := m.Summaries()
	sums[0] = "tampered"
	if got := m.Summaries()[0]; got == "tampered" {
		t.Error("Summaries() exposed internal storage")
	}
}
