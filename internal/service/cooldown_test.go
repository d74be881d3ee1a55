package service

import (
	"errors"
	"testing"
	"time"
)

func TestCooldownTrackerEvaluate(t *testing.T) {
	tracker := CooldownTracker{}
	last := time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name          string
		last          *time.Time
		now           time.Time
		cooldown      time.Duration
		wantActive    bool
		wantRemaining int
	}{
		{"no prior interaction", nil, last, day, false, 0},
		{"one second later", &last, last.Add(time.Second), day, true, 86399},
		{"one second before the end", &last, last.Add(day - time.Second), day, true, 1},
		{"partial second rounds up", &last, last.Add(day - 1500*time.Millisecond), day, true, 2},
		{"exactly at the end", &last, last.Add(day), day, false, 0},
		{"long after", &last, last.Add(3 * day), day, false, 0},
		{"zero cooldown", &last, last, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tracker.Evaluate(tt.last, tt.now, tt.cooldown)
			if status.IsActive != tt.wantActive {
				t.Fatalf("IsActive = %v, want %v", status.IsActive, tt.wantActive)
			}
			if status.RemainingSeconds != tt.wantRemaining {
				t.Errorf("RemainingSeconds = %d, want %d", status.RemainingSeconds, tt.wantRemaining)
			}
			if tt.wantActive {
				if status.EndsAt == nil || !status.EndsAt.Equal(tt.last.Add(tt.cooldown)) {
					t.Errorf("EndsAt = %v, want %v", status.EndsAt, tt.last.Add(tt.cooldown))
				}
			} else if status.EndsAt != nil {
				t.Errorf("inactive status should have no EndsAt, got %v", status.EndsAt)
			}
		})
	}
}

func TestCooldownTrackerAssertNotActive(t *testing.T) {
	tracker := CooldownTracker{}
	last := time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)

	err := tracker.AssertNotActive(&last, last.Add(59*time.Minute), time.Hour)
	var cooldown *CooldownActiveError
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected CooldownActiveError, got %v", err)
	}
	if cooldown.RemainingSeconds != 60 {
		t.Errorf("RemainingSeconds = %d, want 60", cooldown.RemainingSeconds)
	}
	if !errors.Is(err, ErrCooldownActive) {
		t.Error("CooldownActiveError must match ErrCooldownActive")
	}

	if err := tracker.AssertNotActive(&last, last.Add(time.Hour), time.Hour); err != nil {
		t.Fatalf("cooldown must be over at exactly D, got %v", err)
	}
}
