package entity

import (
	"time"

	"github.com/google/uuid"
)

type VerificationType string

const (
	EmailVerify   VerificationType = "email_verify"
	PasswordReset VerificationType = "password_reset"
)

func (t VerificationType) Valid() bool {
	return t == EmailVerify || t == PasswordReset
}

// VerificationToken is a hashed single-use code. A row is redeemable while
// UsedAt is nil, ExpiresAt is in the future and Attempts is below the cap.
type VerificationToken struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_verification_tokens_lookup,priority:1"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Type      VerificationType `gorm:"type:varchar(32);not null;index:idx_verification_tokens_lookup,priority:2"`
	TokenHash string           `gorm:"type:text;not null;uniqueIndex:idx_verification_tokens_unused_hash,where:used_at IS NULL"`

	ExpiresAt time.Time `gorm:"not null;index"`
	Attempts  int       `gorm:"not null;default:0"`
	UsedAt    *time.Time

	CreatedAt time.Time `gorm:"index"`
}

func (t VerificationToken) IsUsed() bool {
	return t.UsedAt != nil
}

func (t VerificationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
