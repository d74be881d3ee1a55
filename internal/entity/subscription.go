package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionPlan string

const (
	PlanFree    SubscriptionPlan = "free"
	PlanPremium SubscriptionPlan = "premium"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
)

type Subscription struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Plan      SubscriptionPlan   `gorm:"type:varchar(16);not null;default:'free'"`
	Status    SubscriptionStatus `gorm:"type:varchar(16);not null;default:'active'"`
	ExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unlimited reports whether the subscription lifts daily quotas at now.
func (s *Subscription) Unlimited(now time.Time) bool {
	if s == nil || s.Plan == PlanFree || s.Status != SubscriptionActive {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}
