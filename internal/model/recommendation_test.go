package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusImplemented, true},
		{StatusPending, StatusDismissed, true},
		{StatusPending, StatusExpired, true},
		{StatusInProgress, StatusImplemented, true},
		{StatusInProgress, StatusDismissed, true},
		{StatusInProgress, StatusPending, false},
		{StatusImplemented, StatusExpired, true},
		{StatusImplemented, StatusPending, false},
		{StatusImplemented, StatusInProgress, false},
		{StatusImplemented, StatusDismissed, false},
		{StatusDismissed, StatusPending, false},
		{StatusDismissed, StatusInProgress, false},
		{StatusExpired, StatusPending, false},
		{StatusExpired, StatusImplemented, false},
		{StatusPending, StatusPending, true},
		{StatusImplemented, StatusImplemented, true},
		{StatusDismissed, StatusDismissed, true},
		{StatusPending, Status("archived"), false},
		{Status(""), StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPriorityRank(t *testing.T) {
	order := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s rank %d should be below %s rank %d", order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
	if Priority("urgent").Rank() != PriorityMedium.Rank() {
		t.Errorf("unknown priority rank = %d, want medium", Priority("urgent").Rank())
	}
}

func TestCategories_Complete(t *testing.T) {
	if len(Categories) != 14 {
		t.Fatalf("len(Categories) = %d, want 14", len(Categories))
	}
	seen := map[Category]bool{}
	for _, c := range Categories {
		if seen[c] {
			t.Errorf("duplicate category %s", c)
		}
		seen[c] = true
	}
}
