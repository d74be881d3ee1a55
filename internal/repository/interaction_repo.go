package repository

import (
	"context"
	"errors"
	"time"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InteractionRepository interface {
	Create(ctx context.Context, interaction *entity.Interaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Interaction, error)
	// LatestToReceiver returns the newest interaction of feature from sender to
	// receiver that is not scoped to a resource.
	LatestToReceiver(ctx context.Context, feature entity.Feature, senderID, receiverID uuid.UUID) (*entity.Interaction, error)
	LatestOnResource(ctx context.Context, feature entity.Feature, senderID, resourceID uuid.UUID) (*entity.Interaction, error)
	// MarkRead sets read_at only while it is still null.
	MarkRead(ctx context.Context, id uuid.UUID, receiverID uuid.UUID, at time.Time) (bool, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID, feature *entity.Feature, limit, offset int) ([]entity.Interaction, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Create(ctx context.Context, interaction *entity.Interaction) error {
	interaction.CreatedAt = dbTime(interaction.CreatedAt)
	return r.db.WithContext(ctx).Create(interaction).Error
}

func (r *interactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Interaction, error) {
	var interaction entity.Interaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&interaction).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (r *interactionRepository) LatestToReceiver(ctx context.Context, feature entity.Feature, senderID, receiverID uuid.UUID) (*entity.Interaction, error) {
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("feature = ? AND sender_id = ? AND receiver_id = ? AND resource_id IS NULL", feature, senderID, receiverID))
}

func (r *interactionRepository) LatestOnResource(ctx context.Context, feature entity.Feature, senderID, resourceID uuid.UUID) (*entity.Interaction, error) {
	return r.latest(ctx, r.db.WithContext(ctx).
		Where("feature = ? AND sender_id = ? AND resource_id = ?", feature, senderID, resourceID))
}

func (r *interactionRepository) latest(_ context.Context, query *gorm.DB) (*entity.Interaction, error) {
	var interaction entity.Interaction
	err := query.Order("created_at DESC").First(&interaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

func (r *interactionRepository) MarkRead(ctx context.Context, id uuid.UUID, receiverID uuid.UUID, at time.Time) (bool, error) {
	readAt := dbTime(at)
	result := r.db.WithContext(ctx).
		Model(&entity.Interaction{}).
		Where("id = ? AND receiver_id = ? AND read_at IS NULL", id, receiverID).
		Update("read_at", &readAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *interactionRepository) ListByReceiver(ctx context.Context, receiverID uuid.UUID, feature *entity.Feature, limit, offset int) ([]entity.Interaction, error) {
	var interactions []entity.Interaction
	query := r.db.WithContext(ctx).Where("receiver_id = ?", receiverID).Order("created_at DESC")
	if feature != nil {
		query = query.Where("feature = ?", *feature)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&interactions).Error; err != nil {
		return nil, err
	}
	return interactions, nil
}

func (r *interactionRepository) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Interaction{}).
		Where("receiver_id = ? AND read_at IS NULL", receiverID).
		Count(&count).Error
	return count, err
}
