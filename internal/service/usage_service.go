package service

import (
	"context"
	"fmt"

	"togetherdo/internal/entity"
	"togetherdo/internal/metrics"
	"togetherdo/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UsageService reports and charges daily quotas for features that have no
// interaction row of their own, such as AI todo parsing.
type UsageService struct {
	usage     repository.UsageCounterRepository
	tx        repository.TxRunner
	tiers     *TierResolver
	policies  Policies
	ledger    QuotaLedger
	clock     Clock
	txRetries int
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
}

func NewUsageService(
	usage repository.UsageCounterRepository,
	tx repository.TxRunner,
	tiers *TierResolver,
	policies Policies,
	cfg InteractionConfig,
	clock Clock,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *UsageService {
	return &UsageService{
		usage:     usage,
		tx:        tx,
		tiers:     tiers,
		policies:  policies,
		ledger:    QuotaLedger{TZOffsetMinutes: cfg.TZOffsetMinutes},
		clock:     clock,
		txRetries: cfg.TxRetries,
		metrics:   m,
		logger:    loggerOrDiscard(logger),
	}
}

func (s *UsageService) Status(ctx context.Context, userID uuid.UUID, feature entity.Feature) (QuotaStatus, error) {
	if _, ok := s.policies[feature]; !ok {
		return QuotaStatus{}, ErrInvalidInput
	}
	limit, err := s.tiers.LimitFor(ctx, userID, feature)
	if err != nil {
		return QuotaStatus{}, err
	}
	counter, err := s.usage.Find(ctx, userID, feature)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("load usage: %w", err)
	}
	return s.ledger.Evaluate(counter, nowFrom(s.clock), limit), nil
}

// Consume charges one use of a metered feature. Interactive features are
// charged by InteractionService.Send instead.
func (s *UsageService) Consume(ctx context.Context, userID uuid.UUID, feature entity.Feature) (QuotaStatus, error) {
	policy, ok := s.policies[feature]
	if !ok || policy.Interactive {
		return QuotaStatus{}, ErrInvalidInput
	}
	limit, err := s.tiers.LimitFor(ctx, userID, feature)
	if err != nil {
		return QuotaStatus{}, err
	}
	now := nowFrom(s.clock)

	counter, err := s.usage.Find(ctx, userID, feature)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("load usage: %w", err)
	}
	if _, err := s.ledger.TryConsume(counter, now, limit); err != nil {
		return QuotaStatus{}, withFeature(err, feature)
	}

	var charged *entity.UsageCounter
	err = retryTx(ctx, s.txRetries, s.logger, "consume "+string(feature), func() error {
		return s.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
			counter, err := s.ledger.consumeLocked(ctx, tx.Usage(), userID, feature, now, limit)
			if err != nil {
				return err
			}
			charged = counter
			return nil
		})
	})
	if err != nil {
		return QuotaStatus{}, withFeature(err, feature)
	}

	s.metrics.UsageConsumed(string(feature))
	return s.ledger.Evaluate(charged, now, limit), nil
}
