package repository

import (
	"context"
	"errors"
	"time"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageCounterRepository interface {
	Find(ctx context.Context, userID uuid.UUID, feature entity.Feature) (*entity.UsageCounter, error)
	// LockForUpdate creates the row with count 0 when missing and returns it
	// locked for the rest of the transaction.
	LockForUpdate(ctx context.Context, userID uuid.UUID, feature entity.Feature, now time.Time) (*entity.UsageCounter, error)
	// ResetWindow sets count to 1 and starts a new window, only if the row
	// still carries observedWindow.
	ResetWindow(ctx context.Context, userID uuid.UUID, feature entity.Feature, observedWindow time.Time, newWindow time.Time) (bool, error)
	// Increment adds one, only if the row still carries observedWindow and,
	// when limit is set, count is below it.
	Increment(ctx context.Context, userID uuid.UUID, feature entity.Feature, observedWindow time.Time, limit *int) (bool, error)
}

type usageCounterRepository struct {
	db *gorm.DB
}

func NewUsageCounterRepository(db *gorm.DB) UsageCounterRepository {
	return &usageCounterRepository{db: db}
}

func (r *usageCounterRepository) Find(ctx context.Context, userID uuid.UUID, feature entity.Feature) (*entity.UsageCounter, error) {
	var counter entity.UsageCounter
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND feature = ?", userID, feature).
		First(&counter).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (r *usageCounterRepository) LockForUpdate(ctx context.Context, userID uuid.UUID, feature entity.Feature, now time.Time) (*entity.UsageCounter, error) {
	seed := &entity.UsageCounter{
		UserID:          userID,
		Feature:         feature,
		Count:           0,
		WindowStartedAt: dbTime(now),
	}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed).Error
	if err != nil {
		return nil, err
	}

	var counter entity.UsageCounter
	err = r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND feature = ?", userID, feature).
		First(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (r *usageCounterRepository) ResetWindow(ctx context.Context, userID uuid.UUID, feature entity.Feature, observedWindow time.Time, newWindow time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.UsageCounter{}).
		Where("user_id = ? AND feature = ? AND window_started_at = ?", userID, feature, observedWindow).
		Updates(map[string]any{
			"count":             1,
			"window_started_at": dbTime(newWindow),
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *usageCounterRepository) Increment(ctx context.Context, userID uuid.UUID, feature entity.Feature, observedWindow time.Time, limit *int) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.UsageCounter{}).
		Where("user_id = ? AND feature = ? AND window_started_at = ?", userID, feature, observedWindow)
	if limit != nil {
		query = query.Where("count < ?", *limit)
	}
	result := query.Updates(map[string]any{
		"count":      gorm.Expr("count + 1"),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// dbTime matches the microsecond precision of timestamptz so values read back
// compare equal to what was written.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
