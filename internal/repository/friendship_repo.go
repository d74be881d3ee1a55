package repository

import (
	"context"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendshipRepository interface {
	// AreFriends is symmetric: either user may have sent the request.
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Friendship{}).
		Where(`
			status = ? AND (
				(requester_id = ? AND addressee_id = ?) OR
				(requester_id = ? AND addressee_id = ?)
			)
		`, entity.FriendshipAccepted, a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
