package service

import (
	"context"
	"fmt"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/repository"

	"github.com/google/uuid"
)

type FeaturePolicy struct {
	DailyLimit       int
	Cooldown         time.Duration
	MaxMessageLength int
	// Interactive features create Interaction rows; the rest are metered only.
	Interactive bool
}

type Policies map[entity.Feature]FeaturePolicy

func DefaultPolicies() Policies {
	return Policies{
		entity.FeatureNudge: {
			DailyLimit:       5,
			Cooldown:         24 * time.Hour,
			MaxMessageLength: 200,
			Interactive:      true,
		},
		entity.FeatureCheer: {
			DailyLimit:       10,
			Cooldown:         time.Hour,
			MaxMessageLength: 200,
			Interactive:      true,
		},
		entity.FeatureAIParse: {
			DailyLimit: 3,
		},
	}
}

// TierResolver turns a user's subscription into the daily limit for a
// feature. nil means unlimited.
type TierResolver struct {
	subscriptions repository.SubscriptionRepository
	policies      Policies
	clock         Clock
}

func NewTierResolver(subscriptions repository.SubscriptionRepository, policies Policies, clock Clock) *TierResolver {
	return &TierResolver{subscriptions: subscriptions, policies: policies, clock: clock}
}

func (r *TierResolver) LimitFor(ctx context.Context, userID uuid.UUID, feature entity.Feature) (*int, error) {
	policy, ok := r.policies[feature]
	if !ok {
		return nil, ErrInvalidInput
	}
	if r.subscriptions != nil {
		subscription, err := r.subscriptions.FindByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load subscription: %w", err)
		}
		if subscription.Unlimited(nowFrom(r.clock)) {
			return nil, nil
		}
	}
	limit := policy.DailyLimit
	return &limit, nil
}
