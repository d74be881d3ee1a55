package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is one signed-in device. The refresh token is stored hashed and
// replaced on every rotation.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_sessions_user_live,priority:1"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	TokenHash string `gorm:"type:text;not null;uniqueIndex"`

	DeviceID   string  `gorm:"type:varchar(255);not null"`
	DeviceName string  `gorm:"type:varchar(100)"`
	IPAddress  *string `gorm:"type:varchar(45)"`
	UserAgent  *string `gorm:"type:text"`

	ExpiresAt time.Time  `gorm:"not null;index"`
	RotatedAt *time.Time
	RevokedAt *time.Time `gorm:"index:idx_sessions_user_live,priority:2"`

	CreatedAt time.Time
}

func (s Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// LastActiveAt is the latest rotation, or sign-in when never rotated.
func (s Session) LastActiveAt() time.Time {
	if s.RotatedAt != nil {
		return *s.RotatedAt
	}
	return s.CreatedAt
}
