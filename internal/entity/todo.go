package entity

import (
	"time"

	"github.com/google/uuid"
)

type TodoVisibility string

const (
	TodoPublic  TodoVisibility = "public"
	TodoFriends TodoVisibility = "friends"
	TodoPrivate TodoVisibility = "private"
)

type Todo struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Owner      User           `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Title      string         `gorm:"type:varchar(200);not null"`
	Visibility TodoVisibility `gorm:"type:varchar(16);not null;default:'friends'"`

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
