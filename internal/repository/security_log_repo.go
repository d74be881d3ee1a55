package repository

import (
	"context"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SecurityLogRepository is append-only.
type SecurityLogRepository interface {
	Log(ctx context.Context, entry *entity.SecurityLog) error
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID uuid.UUID, actions []entity.SecurityAction, limit int) ([]entity.SecurityLog, error)
}

type securityLogRepository struct {
	db *gorm.DB
}

func NewSecurityLogRepository(db *gorm.DB) SecurityLogRepository {
	return &securityLogRepository{db: db}
}

func (r *securityLogRepository) Log(ctx context.Context, entry *entity.SecurityLog) error {
	return r.db.WithContext(ctx).Omit(clauseUser).Create(entry).Error
}

func (r *securityLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, actions []entity.SecurityAction, limit int) ([]entity.SecurityLog, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit)
	if len(actions) > 0 {
		query = query.Where("action IN ?", actions)
	}

	var entries []entity.SecurityLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
