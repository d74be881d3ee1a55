package entity

import (
	"time"

	"github.com/google/uuid"
)

// Interaction is a nudge or cheer. Rows are an audit trail and are never
// deleted; ReadAt is written once by the receiver.
type Interaction struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Feature Feature   `gorm:"type:varchar(32);not null;index:idx_interactions_sender_receiver,priority:1;index:idx_interactions_sender_resource,priority:1"`

	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_interactions_sender_receiver,priority:2;index:idx_interactions_sender_resource,priority:2"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index:idx_interactions_sender_receiver,priority:3;index:idx_interactions_receiver"`
	ResourceID *uuid.UUID `gorm:"type:uuid;index:idx_interactions_sender_resource,priority:3"`

	Message *string `gorm:"type:varchar(500)"`

	CreatedAt time.Time `gorm:"not null;index:idx_interactions_sender_receiver,priority:4,sort:desc;index:idx_interactions_sender_resource,priority:4,sort:desc"`
	ReadAt    *time.Time
}
