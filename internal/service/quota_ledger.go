package service

import (
	"context"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/repository"
	"togetherdo/internal/utils"

	"github.com/google/uuid"
)

// QuotaStatus describes a user's allowance for one feature. Limit and
// Remaining are nil for unlimited tiers.
type QuotaStatus struct {
	Used      int
	Limit     *int
	Remaining *int
	ResetsAt  time.Time
}

// CounterUpdate is the write a successful TryConsume asks for. It must be
// applied in the same transaction as the action it pays for.
type CounterUpdate struct {
	Reset          bool
	ObservedWindow time.Time
	NewWindow      time.Time
	Limit          *int
}

type QuotaLedger struct {
	TZOffsetMinutes int
}

func (l QuotaLedger) Evaluate(counter *entity.UsageCounter, now time.Time, limit *int) QuotaStatus {
	used := 0
	if counter != nil && !utils.IsNewWindow(counter.WindowStartedAt, now, l.TZOffsetMinutes) {
		used = counter.Count
	}
	status := QuotaStatus{
		Used:     used,
		ResetsAt: utils.NextWindowBoundary(now, l.TZOffsetMinutes),
	}
	if limit != nil {
		capped := *limit
		remaining := max(0, capped-used)
		status.Limit = &capped
		status.Remaining = &remaining
	}
	return status
}

func (l QuotaLedger) TryConsume(counter *entity.UsageCounter, now time.Time, limit *int) (CounterUpdate, error) {
	status := l.Evaluate(counter, now, limit)
	if limit != nil && status.Used >= *limit {
		return CounterUpdate{}, &QuotaExceededError{
			Used:     status.Used,
			Limit:    *limit,
			ResetsAt: status.ResetsAt,
		}
	}

	update := CounterUpdate{Limit: limit, NewWindow: now}
	if counter == nil {
		update.Reset = true
		return update, nil
	}
	update.ObservedWindow = counter.WindowStartedAt
	update.Reset = utils.IsNewWindow(counter.WindowStartedAt, now, l.TZOffsetMinutes)
	return update, nil
}

// consumeLocked locks the counter row, re-decides on the locked snapshot and
// applies the update as a conditional write.
func (l QuotaLedger) consumeLocked(
	ctx context.Context,
	counters repository.UsageCounterRepository,
	userID uuid.UUID,
	feature entity.Feature,
	now time.Time,
	limit *int,
) (*entity.UsageCounter, error) {
	counter, err := counters.LockForUpdate(ctx, userID, feature, now)
	if err != nil {
		return nil, err
	}
	update, err := l.TryConsume(counter, now, limit)
	if err != nil {
		return nil, err
	}

	var applied bool
	if update.Reset {
		applied, err = counters.ResetWindow(ctx, userID, feature, update.ObservedWindow, update.NewWindow)
	} else {
		applied, err = counters.Increment(ctx, userID, feature, update.ObservedWindow, update.Limit)
	}
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, repository.ErrConflict
	}

	if update.Reset {
		counter.Count = 1
		counter.WindowStartedAt = update.NewWindow
	} else {
		counter.Count++
	}
	return counter, nil
}
