package service

import (
	"context"
	"fmt"

	"togetherdo/internal/repository"

	"github.com/sirupsen/logrus"
)

const defaultTxRetries = 3

// retryTx replays fn while it fails with a retryable storage error. Any other
// error, validation errors included, is returned as is.
func retryTx(ctx context.Context, attempts int, logger logrus.FieldLogger, op string, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultTxRetries
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !repository.IsRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.WithFields(logrus.Fields{"op": op, "attempt": attempt}).WithError(err).Warn("transaction conflict, retrying")
	}
	return fmt.Errorf("%s: %w: %v", op, ErrTxConflict, err)
}

func loggerOrDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger != nil {
		return logger
	}
	discard := logrus.New()
	discard.SetOutput(nopWriter{})
	return discard
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
