package entity

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

type Friendship struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:1"`
	AddresseeID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:2;index"`
	Status      FriendshipStatus `gorm:"type:varchar(16);not null;default:'pending'"`

	RespondedAt *time.Time
	CreatedAt   time.Time
}
