package repository

import (
	"context"
	"time"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	// FindByTokenHash only returns sessions that are neither revoked nor expired at now.
	FindByTokenHash(ctx context.Context, hash string, now time.Time) (*entity.Session, error)
	ListLiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]entity.Session, error)
	// RotateToken swaps the refresh hash only if the session still holds oldHash.
	RotateToken(ctx context.Context, sessionID uuid.UUID, oldHash string, newHash string, expiresAt time.Time) (bool, error)
	Revoke(ctx context.Context, sessionID uuid.UUID) error
	// RevokeOwned reports false when the session is missing, already revoked
	// or belongs to someone else.
	RevokeOwned(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) (bool, error)
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Omit(clauseUser).Create(session).Error
}

func (r *sessionRepository) FindByTokenHash(ctx context.Context, hash string, now time.Time) (*entity.Session, error) {
	var session entity.Session
	err := r.live(ctx, now).Where("token_hash = ?", hash).First(&session).Error
	return firstOrNil(&session, err)
}

func (r *sessionRepository) ListLiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]entity.Session, error) {
	var sessions []entity.Session
	err := r.live(ctx, now).
		Where("user_id = ?", userID).
		Order("COALESCE(rotated_at, created_at) DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) RotateToken(ctx context.Context, sessionID uuid.UUID, oldHash string, newHash string, expiresAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("id = ? AND token_hash = ? AND revoked_at IS NULL", sessionID, oldHash).
		Updates(map[string]any{
			"token_hash": newHash,
			"expires_at": expiresAt,
			"rotated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.revoke(ctx, "id = ?", sessionID)
	return err
}

func (r *sessionRepository) RevokeOwned(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) (bool, error) {
	n, err := r.revoke(ctx, "id = ? AND user_id = ?", sessionID, userID)
	return n == 1, err
}

func (r *sessionRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.revoke(ctx, "user_id = ?", userID)
	return err
}

// DeleteExpired removes sessions that expired or were revoked before cutoff.
func (r *sessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", cutoff, cutoff).
		Delete(&entity.Session{})
	return result.RowsAffected, result.Error
}

func (r *sessionRepository) live(ctx context.Context, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Where("revoked_at IS NULL AND expires_at > ?", now)
}

func (r *sessionRepository) revoke(ctx context.Context, cond string, args ...any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("revoked_at IS NULL").
		Where(cond, args...).
		Update("revoked_at", time.Now())
	return result.RowsAffected, result.Error
}
