package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
)

func newUsageFixture() (*UsageService, *fakeStore, *fakeClock) {
	store := newFakeStore()
	clock := newFakeClock(sendStart)
	policies := DefaultPolicies()
	svc := NewUsageService(
		fakeUsage{store},
		store,
		NewTierResolver(fakeSubscriptions{store}, policies, clock),
		policies,
		InteractionConfig{TZOffsetMinutes: 540},
		clock,
		nil,
		nil,
	)
	return svc, store, clock
}

func TestUsageConsumeAIParse(t *testing.T) {
	svc, _, clock := newUsageFixture()
	ctx := context.Background()
	userID := uuid.New()

	for i := 1; i <= 3; i++ {
		status, err := svc.Consume(ctx, userID, entity.FeatureAIParse)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if status.Used != i || *status.Remaining != 3-i {
			t.Fatalf("after consume %d: %+v", i, status)
		}
	}

	_, err := svc.Consume(ctx, userID, entity.FeatureAIParse)
	var quota *QuotaExceededError
	if !errors.As(err, &quota) || quota.Feature != string(entity.FeatureAIParse) {
		t.Fatalf("4th parse: expected ai_parse QuotaExceededError, got %v", err)
	}

	clock.Advance(24 * time.Hour)
	status, err := svc.Status(ctx, userID, entity.FeatureAIParse)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Used != 0 || *status.Remaining != 3 {
		t.Fatalf("next day status %+v", status)
	}
}

func TestUsageRejectsInteractiveAndUnknownFeatures(t *testing.T) {
	svc, _, _ := newUsageFixture()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, uuid.New(), entity.FeatureNudge); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nudge is charged by Send, expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Status(ctx, uuid.New(), entity.Feature("poke")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown feature: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Status(ctx, uuid.New(), entity.FeatureNudge); err != nil {
		t.Fatalf("nudge status must be readable: %v", err)
	}
}

func TestUsageStatusUnlimited(t *testing.T) {
	svc, store, _ := newUsageFixture()
	userID := uuid.New()
	store.setSubscription(&entity.Subscription{UserID: userID, Plan: entity.PlanPremium, Status: entity.SubscriptionActive})

	status, err := svc.Status(context.Background(), userID, entity.FeatureAIParse)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Limit != nil || status.Remaining != nil {
		t.Fatalf("premium status should be unlimited, got %+v", status)
	}
}

func TestSweeperRunOnce(t *testing.T) {
	store := newFakeStore()
	clock := newFakeClock(codeStart)
	userID := uuid.New()

	usedAt := codeStart.Add(-48 * time.Hour)
	old := seedCode(store, userID, entity.EmailVerify, "111111", codeStart.Add(-72*time.Hour), 15*time.Minute)
	spent := seedCode(store, userID, entity.PasswordReset, "222222", codeStart.Add(-49*time.Hour), 72*time.Hour)
	store.tokens[spent].UsedAt = &usedAt
	live := seedCode(store, userID, entity.EmailVerify, "333333", codeStart, 15*time.Minute)

	store.sessions[uuid.New()] = &entity.Session{UserID: userID, ExpiresAt: codeStart.Add(-25 * time.Hour)}
	store.sessions[uuid.New()] = &entity.Session{UserID: userID, ExpiresAt: codeStart.Add(time.Hour)}

	sweeper := NewSweeper(fakeTokens{store}, fakeSessions{store}, 24*time.Hour, clock, nil, nil)
	result, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Tokens != 2 || result.Sessions != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, ok := store.tokens[old]; ok {
		t.Fatal("expired token survived")
	}
	if _, ok := store.tokens[live]; !ok {
		t.Fatal("live token was deleted")
	}
}
