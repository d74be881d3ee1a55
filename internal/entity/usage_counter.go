package entity

import (
	"time"

	"github.com/google/uuid"
)

type Feature string

const (
	FeatureNudge   Feature = "nudge"
	FeatureCheer   Feature = "cheer"
	FeatureAIParse Feature = "ai_parse"
)

// UsageCounter is one row per (user, feature). Count only means something
// relative to WindowStartedAt; a row from an earlier window reads as zero.
type UsageCounter struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Feature         Feature   `gorm:"type:varchar(32);primaryKey"`
	Count           int       `gorm:"not null;default:0;check:count >= 0"`
	WindowStartedAt time.Time `gorm:"not null"`

	UpdatedAt time.Time
}
