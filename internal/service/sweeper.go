package service

import (
	"context"
	"fmt"
	"time"

	"togetherdo/internal/metrics"
	"togetherdo/internal/repository"

	"github.com/sirupsen/logrus"
)

type SweepResult struct {
	Tokens   int64
	Sessions int64
}

// Sweeper deletes spent verification codes and expired sessions. Interactions
// are kept forever.
type Sweeper struct {
	tokens    repository.VerificationTokenRepository
	sessions  repository.SessionRepository
	retention time.Duration
	clock     Clock
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
}

func NewSweeper(
	tokens repository.VerificationTokenRepository,
	sessions repository.SessionRepository,
	retention time.Duration,
	clock Clock,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *Sweeper {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Sweeper{
		tokens:    tokens,
		sessions:  sessions,
		retention: retention,
		clock:     clock,
		metrics:   m,
		logger:    loggerOrDiscard(logger),
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	cutoff := nowFrom(s.clock).Add(-s.retention)

	tokens, err := s.tokens.DeleteStale(ctx, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("delete stale codes: %w", err)
	}
	s.metrics.SweepDeleted("verification_tokens", tokens)

	sessions, err := s.sessions.DeleteExpired(ctx, cutoff)
	if err != nil {
		return SweepResult{Tokens: tokens}, fmt.Errorf("delete expired sessions: %w", err)
	}
	s.metrics.SweepDeleted("sessions", sessions)

	result := SweepResult{Tokens: tokens, Sessions: sessions}
	s.logger.WithFields(logrus.Fields{
		"tokens":   result.Tokens,
		"sessions": result.Sessions,
		"cutoff":   cutoff,
	}).Info("sweep finished")
	return result, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.WithError(err).Error("sweep failed")
			}
		}
	}
}
