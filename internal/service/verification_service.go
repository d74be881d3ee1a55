package service

import (
	"context"
	"fmt"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/metrics"
	"togetherdo/internal/repository"
	"togetherdo/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type VerificationConfig struct {
	CodeLength   int
	MaxAttempts  int
	ResendWindow time.Duration
	ResendLimit  int
}

func DefaultVerificationConfig() VerificationConfig {
	return VerificationConfig{
		CodeLength:   6,
		MaxAttempts:  5,
		ResendWindow: time.Minute,
		ResendLimit:  1,
	}
}

// IssuedCode carries the plaintext exactly once, back to the caller that
// delivers it. Only Token is stored.
type IssuedCode struct {
	Plaintext string
	Token     *entity.VerificationToken
}

type VerificationService struct {
	tokens  repository.VerificationTokenRepository
	tx      repository.TxRunner
	clock   Clock
	cfg     VerificationConfig
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

func NewVerificationService(
	tokens repository.VerificationTokenRepository,
	tx repository.TxRunner,
	clock Clock,
	cfg VerificationConfig,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *VerificationService {
	defaults := DefaultVerificationConfig()
	if cfg.CodeLength == 0 {
		cfg.CodeLength = defaults.CodeLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.ResendLimit <= 0 {
		cfg.ResendLimit = defaults.ResendLimit
	}
	return &VerificationService{
		tokens:  tokens,
		tx:      tx,
		clock:   clock,
		cfg:     cfg,
		metrics: m,
		logger:  loggerOrDiscard(logger),
	}
}

// Issue revokes every live code of (user, type) and stores a fresh one.
func (s *VerificationService) Issue(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, ttl time.Duration) (*IssuedCode, error) {
	if !tokenType.Valid() || ttl <= 0 {
		return nil, ErrInvalidInput
	}
	now := nowFrom(s.clock)

	if s.cfg.ResendWindow > 0 {
		recent, err := s.tokens.CountIssuedSince(ctx, userID, tokenType, now.Add(-s.cfg.ResendWindow))
		if err != nil {
			return nil, fmt.Errorf("count recent codes: %w", err)
		}
		if recent >= int64(s.cfg.ResendLimit) {
			return nil, ErrResendTooSoon
		}
	}

	var issued *IssuedCode
	err := retryTx(ctx, defaultTxRetries, s.logger, "issue code", func() error {
		code, err := utils.GenerateNumericCode(s.cfg.CodeLength)
		if err != nil {
			return err
		}
		token := &entity.VerificationToken{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      tokenType,
			TokenHash: utils.HashCode(userID.String(), string(tokenType), code),
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		err = s.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
			if _, err := tx.Verifications().InvalidateActive(ctx, userID, tokenType, now); err != nil {
				return err
			}
			return tx.Verifications().Create(ctx, token)
		})
		if err != nil {
			return err
		}
		issued = &IssuedCode{Plaintext: code, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CodeIssued(string(tokenType))
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"type":     tokenType,
		"token_id": issued.Token.ID,
	}).Info("verification code issued")
	return issued, nil
}

// Redeem consumes the live code of (user, type) if code matches it. When
// onConsumed is set it runs in the consuming transaction, so its writes commit
// or roll back together with the consumption.
func (s *VerificationService) Redeem(
	ctx context.Context,
	userID uuid.UUID,
	tokenType entity.VerificationType,
	code string,
	onConsumed func(tx repository.Tx) error,
) error {
	err := s.redeem(ctx, userID, tokenType, code, onConsumed)
	s.metrics.Redemption(string(tokenType), redemptionOutcome(err))
	return err
}

func (s *VerificationService) redeem(
	ctx context.Context,
	userID uuid.UUID,
	tokenType entity.VerificationType,
	code string,
	onConsumed func(tx repository.Tx) error,
) error {
	if !tokenType.Valid() || code == "" {
		return ErrInvalidCode
	}
	now := nowFrom(s.clock)
	presented := utils.HashCode(userID.String(), string(tokenType), code)

	active, err := s.tokens.FindActive(ctx, userID, tokenType, now)
	if err != nil {
		return fmt.Errorf("find active code: %w", err)
	}
	if active == nil {
		return s.classifyStale(ctx, userID, tokenType, presented, ErrTokenNotFound)
	}
	if active.Attempts >= s.cfg.MaxAttempts {
		return ErrMaxAttemptsExceeded
	}

	if !utils.EqualHashes(active.TokenHash, presented) {
		// Recorded outside any transaction so the failure survives.
		if err := s.tokens.IncrementAttempts(ctx, active.ID); err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"type":     tokenType,
			"attempts": active.Attempts + 1,
		}).Warn("verification code mismatch")
		return s.classifyStale(ctx, userID, tokenType, presented, ErrInvalidCode)
	}

	return s.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		consumed, err := tx.Verifications().ConsumeIfValid(ctx, active.ID, presented, s.cfg.MaxAttempts, now)
		if err != nil {
			return fmt.Errorf("consume code: %w", err)
		}
		if !consumed {
			return s.explainLostConsume(ctx, tx, active.ID, now)
		}
		if onConsumed != nil {
			return onConsumed(tx)
		}
		return nil
	})
}

// classifyStale turns a miss into ErrTokenExpired when the presented code
// belongs to a revoked or timed out row.
func (s *VerificationService) classifyStale(
	ctx context.Context,
	userID uuid.UUID,
	tokenType entity.VerificationType,
	presented string,
	fallback error,
) error {
	stale, err := s.tokens.FindUnusedByHash(ctx, userID, tokenType, presented)
	if err != nil {
		return fmt.Errorf("find code by hash: %w", err)
	}
	if stale != nil {
		return ErrTokenExpired
	}
	return fallback
}

func (s *VerificationService) explainLostConsume(ctx context.Context, tx repository.Tx, id uuid.UUID, now time.Time) error {
	current, err := tx.Verifications().FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload code: %w", err)
	}
	switch {
	case current == nil:
		return ErrTokenNotFound
	case current.IsUsed():
		return ErrTokenUsed
	case current.IsExpired(now):
		return ErrTokenExpired
	case current.Attempts >= s.cfg.MaxAttempts:
		return ErrMaxAttemptsExceeded
	default:
		return ErrTokenNotFound
	}
}

func redemptionOutcome(err error) string {
	if err == nil {
		return "redeemed"
	}
	if kind := ErrorKind(err); kind != "internal" {
		return kind
	}
	return "error"
}
