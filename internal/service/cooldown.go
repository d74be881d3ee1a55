package service

import (
	"time"
)

// CooldownStatus is derived from the newest interaction in a scope; it is
// never stored.
type CooldownStatus struct {
	IsActive         bool
	RemainingSeconds int
	EndsAt           *time.Time
}

type CooldownTracker struct{}

// Evaluate is active while now - last < cooldown. At exactly cooldown elapsed
// the window is over. RemainingSeconds rounds up.
func (CooldownTracker) Evaluate(last *time.Time, now time.Time, cooldown time.Duration) CooldownStatus {
	if last == nil || cooldown <= 0 {
		return CooldownStatus{}
	}
	remaining := cooldown - now.Sub(*last)
	if remaining <= 0 {
		return CooldownStatus{}
	}
	endsAt := last.Add(cooldown)
	return CooldownStatus{
		IsActive:         true,
		RemainingSeconds: int((remaining + time.Second - 1) / time.Second),
		EndsAt:           &endsAt,
	}
}

func (t CooldownTracker) AssertNotActive(last *time.Time, now time.Time, cooldown time.Duration) error {
	status := t.Evaluate(last, now, cooldown)
	if !status.IsActive {
		return nil
	}
	return &CooldownActiveError{
		RemainingSeconds: status.RemainingSeconds,
		EndsAt:           *status.EndsAt,
	}
}
