package repository

import (
	"context"
	"errors"
	"time"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationTokenRepository interface {
	Create(ctx context.Context, token *entity.VerificationToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationToken, error)
	// FindActive returns the newest unused, unexpired token for (user, type).
	FindActive(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, now time.Time) (*entity.VerificationToken, error)
	// FindUnusedByHash ignores expiry; it lets callers tell a revoked code
	// apart from a wrong one.
	FindUnusedByHash(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, tokenHash string) (*entity.VerificationToken, error)
	// InvalidateActive pulls expires_at of every live token for (user, type) back to now.
	InvalidateActive(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, now time.Time) (int64, error)
	CountIssuedSince(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, since time.Time) (int64, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	// ConsumeIfValid marks the token used in a single conditional update and
	// reports whether this call was the one that consumed it.
	ConsumeIfValid(ctx context.Context, id uuid.UUID, tokenHash string, maxAttempts int, now time.Time) (bool, error)
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type verificationTokenRepository struct {
	db *gorm.DB
}

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

func (r *verificationTokenRepository) Create(ctx context.Context, t *entity.VerificationToken) error {
	t.ExpiresAt = dbTime(t.ExpiresAt)
	return r.db.WithContext(ctx).Omit(clauseUser).Create(t).Error
}

func (r *verificationTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.VerificationToken, error) {
	var token entity.VerificationToken
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *verificationTokenRepository) FindActive(
	ctx context.Context,
	userID uuid.UUID,
	tokenType entity.VerificationType,
	now time.Time,
) (*entity.VerificationToken, error) {

	var token entity.VerificationToken
	err := r.db.WithContext(ctx).
		Where(`
			user_id = ? AND
			type = ? AND
			used_at IS NULL AND
			expires_at > ?
		`, userID, tokenType, now).
		Order("created_at DESC").
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *verificationTokenRepository) FindUnusedByHash(
	ctx context.Context,
	userID uuid.UUID,
	tokenType entity.VerificationType,
	tokenHash string,
) (*entity.VerificationToken, error) {

	var token entity.VerificationToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND token_hash = ? AND used_at IS NULL", userID, tokenType, tokenHash).
		First(&token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *verificationTokenRepository) InvalidateActive(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.VerificationToken{}).
		Where("user_id = ? AND type = ? AND used_at IS NULL AND expires_at > ?", userID, tokenType, now).
		Update("expires_at", dbTime(now))
	return result.RowsAffected, result.Error
}

func (r *verificationTokenRepository) CountIssuedSince(ctx context.Context, userID uuid.UUID, tokenType entity.VerificationType, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.VerificationToken{}).
		Where("user_id = ? AND type = ? AND created_at > ?", userID, tokenType, since).
		Count(&count).Error
	return count, err
}

func (r *verificationTokenRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.VerificationToken{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).
		Error
}

func (r *verificationTokenRepository) ConsumeIfValid(ctx context.Context, id uuid.UUID, tokenHash string, maxAttempts int, now time.Time) (bool, error) {
	usedAt := dbTime(now)
	result := r.db.WithContext(ctx).
		Model(&entity.VerificationToken{}).
		Where(`
			id = ? AND
			token_hash = ? AND
			used_at IS NULL AND
			expires_at > ? AND
			attempts < ?
		`, id, tokenHash, now, maxAttempts).
		Update("used_at", &usedAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *verificationTokenRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("(used_at IS NOT NULL AND used_at < ?) OR expires_at < ?", cutoff, cutoff).
		Delete(&entity.VerificationToken{})
	return result.RowsAffected, result.Error
}
