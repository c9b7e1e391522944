package orchestrator

import (
	"testing"
)

func TestBudgetTracker_StatusTransitions(t *testing.T) {
	tests := []struct {
		name           string
		budget         int
		used           int
		reserved       int
		expectedStatus BudgetStatus
	}{
		{
			name:           "OK - 0% usage",
			budget:         1000,
			used:           0,
			expectedStatus: BudgetOK,
		},
		{
			name:           "OK - 50% usage",
			budget:         1000,
			used:           500,
			expectedStatus: BudgetOK,
		},
		{
			name:           "OK - just under threshold (79%)",
			budget:         1000,
			used:           790,
			expectedStatus: BudgetOK,
		},
		{
			name:           "Warning - at threshold (80%)",
			budget:         1000,
			used:           800,
			expectedStatus: BudgetWarning,
		},
		{
			name:           "Warning - 99% usage",
			budget:         1000,
			used:           990,
			expectedStatus: BudgetWarning,
		},
		{
			name:           "Exhausted - 100% usage",
			budget:         1000,
			used:           1000,
			expectedStatus: BudgetExhausted,
		},
		{
			name:           "Exhausted - over budget (110%)",
			budget:         1000,
			used:           1100,
			expectedStatus: BudgetExhausted,
		},
		{
			name:           "reservations count toward status",
			budget:         1000,
			used:           500,
			reserved:       500,
			expectedStatus: BudgetExhausted,
		},
		{
			name:           "reservations push into warning",
			budget:         1000,
			used:           400,
			reserved:       450,
			expectedStatus: BudgetWarning,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := NewBudgetTracker(tc.budget)
			tracker.Add(tc.used, 0)
			if tc.reserved > 0 {
				tracker.Reserve(tc.reserved)
			}

			status := tracker.CheckBudget()
			if status != tc.expectedStatus {
				t.Errorf("expected status %v, got %v", tc.expectedStatus, status)
			}
		})
	}
}

func TestBudgetTracker_ReservePairsWithRelease(t *testing.T) {
	tracker := NewBudgetTracker(10000)
	tracker.Add(300, 200)

	beforeReserved := tracker.Reserved()
	beforeEffective := tracker.EffectiveTotal()

	tracker.Reserve(1500)
	if tracker.Reserved() != beforeReserved+1500 {
		t.Errorf("expected reserved %d, got %d", beforeReserved+1500, tracker.Reserved())
	}
	if tracker.EffectiveTotal() != beforeEffective+1500 {
		t.Errorf("expected effective %d, got %d", beforeEffective+1500, tracker.EffectiveTotal())
	}

	tracker.ReleaseReservation(1500)
	if tracker.Reserved() != beforeReserved {
		t.Errorf("expected reserved restored to %d, got %d", beforeReserved, tracker.Reserved())
	}
	if tracker.EffectiveTotal() != beforeEffective {
		t.Errorf("expected effective restored to %d, got %d", beforeEffective, tracker.EffectiveTotal())
	}
}

func TestBudgetTracker_EffectiveBudgetExceeded(t *testing.T) {
	tracker := NewBudgetTracker(1000)
	tracker.Add(600, 0)

	if tracker.EffectiveBudgetExceeded() {
		t.Error("expected not exceeded at 60%")
	}

	tracker.Reserve(400)
	if !tracker.EffectiveBudgetExceeded() {
		t.Error("expected exceeded when actual + reserved reaches budget")
	}

	tracker.ReleaseReservation(400)
	if tracker.EffectiveBudgetExceeded() {
		t.Error("expected not exceeded after release")
	}
}

func TestBudgetTracker_CheckWarningOneShot(t *testing.T) {
	tracker := NewBudgetTracker(1000)

	tracker.Add(700, 0)
	if tracker.CheckWarning() {
		t.Error("expected no warning at 70%")
	}

	tracker.Add(100, 0) // 800 = 80%
	if !tracker.CheckWarning() {
		t.Error("expected warning the first time usage reaches 80%")
	}

	// Every later call returns false, even as usage grows.
	if tracker.CheckWarning() {
		t.Error("expected no warning on second check")
	}
	tracker.Add(500, 0)
	if tracker.CheckWarning() {
		t.Error("expected no warning after latch, despite growth")
	}
}

func TestBudgetTracker_CheckWarningNeverReached(t *testing.T) {
	tracker := NewBudgetTracker(1000)
	tracker.Add(100, 100)

	for i := 0; i < 5; i++ {
		if tracker.CheckWarning() {
			t.Fatal("expected no warning below threshold")
		}
	}
}

func TestBudgetTracker_CheckWarningReservationsExcluded(t *testing.T) {
	tracker := NewBudgetTracker(1000)
	tracker.Add(100, 0)
	tracker.Reserve(800)

	// The warning tracks settled usage only.
	if tracker.CheckWarning() {
		t.Error("expected no warning from reservations alone")
	}
}

func TestBudgetTracker_BudgetRemaining(t *testing.T) {
	tracker := NewBudgetTracker(1000)

	if got := tracker.BudgetRemaining(); got != 1000 {
		t.Errorf("expected remaining 1000, got %d", got)
	}

	tracker.Add(300, 100)
	if got := tracker.BudgetRemaining(); got != 600 {
		t.Errorf("expected remaining 600, got %d", got)
	}

	// Reservations do not reduce remaining; only settled usage does.
	tracker.Reserve(500)
	if got := tracker.BudgetRemaining(); got != 600 {
		t.Errorf("expected remaining 600 with reservation, got %d", got)
	}

	tracker.Add(700, 0)
	if got := tracker.BudgetRemaining(); got != 0 {
		t.Errorf("expected remaining clamped to 0, got %d", got)
	}
}

func TestBudgetTracker_AddForAgent(t *testing.T) {
	tracker := NewBudgetTracker(100000)
	tracker.AddForAgent("ziggy", 1000, 500, 0.02)
	tracker.AddForAgent("newton", 2000, 800, 0.05)
	tracker.AddForAgent("ziggy", 500, 250, 0.01)

	if got := tracker.ActualTotal(); got != 5050 {
		t.Errorf("expected actual total 5050, got %d", got)
	}
	if got := tracker.TotalCost(); got < 0.079 || got > 0.081 {
		t.Errorf("expected total cost 0.08, got %v", got)
	}

	records := tracker.AgentUsage()
	if len(records) != 2 {
		t.Fatalf("expected 2 agent records, got %d", len(records))
	}
	// Sorted by agent name.
	if records[0].AgentName != "newton" || records[1].AgentName != "ziggy" {
		t.Errorf("expected records sorted by name, got %q, %q", records[0].AgentName, records[1].AgentName)
	}
	if records[1].InputTokens != 1500 || records[1].OutputTokens != 750 {
		t.Errorf("expected ziggy usage 1500/750, got %d/%d", records[1].InputTokens, records[1].OutputTokens)
	}
	if records[1].TotalTokens() != 2250 {
		t.Errorf("expected ziggy total 2250, got %d", records[1].TotalTokens())
	}
}

func TestBudgetTracker_ZeroBudget(t *testing.T) {
	tracker := NewBudgetTracker(0)

	tracker.Add(100000, 100000)
	if tracker.CheckBudget() != BudgetOK {
		t.Error("expected BudgetOK with zero budget (no limit)")
	}
	if !tracker.CanStartNew() {
		t.Error("expected CanStartNew true with zero budget")
	}
	if tracker.EffectiveBudgetExceeded() {
		t.Error("expected not exceeded with zero budget")
	}
	if tracker.CheckWarning() {
		t.Error("expected no warning with zero budget")
	}
}

func TestBudgetTracker_CanStartNew(t *testing.T) {
	tracker := NewBudgetTracker(1000)

	if !tracker.CanStartNew() {
		t.Error("expected CanStartNew true when BudgetOK")
	}

	tracker.Add(900, 0)
	if !tracker.CanStartNew() {
		t.Error("expected CanStartNew true when BudgetWarning")
	}

	tracker.Reserve(100)
	if tracker.CanStartNew() {
		t.Error("expected CanStartNew false when effective budget exhausted")
	}
}

func TestBudgetTracker_GetUsage(t *testing.T) {
	tracker := NewBudgetTracker(1000)
	tracker.Add(150, 100)

	used, budget, fraction := tracker.GetUsage()
	if used != 250 {
		t.Errorf("expected used 250, got %d", used)
	}
	if budget != 1000 {
		t.Errorf("expected budget 1000, got %d", budget)
	}
	if fraction != 0.25 {
		t.Errorf("expected fraction 0.25, got %v", fraction)
	}
}

func TestBudgetTracker_CustomThreshold(t *testing.T) {
	tracker := NewBudgetTracker(1000)
	tracker.SetWarningThreshold(0.5)

	tracker.Add(490, 0)
	if tracker.CheckWarning() {
		t.Error("expected no warning at 49% with 50% threshold")
	}

	tracker.Add(10, 0)
	if !tracker.CheckWarning() {
		t.Error("expected warning at 50% with 50% threshold")
	}
}

func TestBudgetTracker_ThresholdClamping(t *testing.T) {
	tracker := NewBudgetTracker(1000)

	tracker.SetWarningThreshold(-0.5)
	if tracker.WarningThreshold() != 0 {
		t.Errorf("expected threshold clamped to 0, got %v", tracker.WarningThreshold())
	}

	tracker.SetWarningThreshold(1.5)
	if tracker.WarningThreshold() != 1 {
		t.Errorf("expected threshold clamped to 1, got %v", tracker.WarningThreshold())
	}
}

func TestBudgetStatus_String(t *testing.T) {
	tests := []struct {
		status   BudgetStatus
		expected string
	}{
		{BudgetOK, "OK"},
		{BudgetWarning, "Warning"},
		{BudgetExhausted, "Exhausted"},
		{BudgetStatus(99), "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if tc.status.String() != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, tc.status.String())
			}
		})
	}
}

func TestDefaultWarningThreshold(t *testing.T) {
	if DefaultWarningThreshold != 0.80 {
		t.Errorf("expected DefaultWarningThreshold to be 0.80, got %v", DefaultWarningThreshold)
	}
}
