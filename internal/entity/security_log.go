package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SecurityAction names an account event worth auditing. Code events carry
// the verification type and, when rejected, the reason in Metadata.
type SecurityAction string

const (
	LoginSuccess   SecurityAction = "login_success"
	LoginFailed    SecurityAction = "login_failed"
	Logout         SecurityAction = "logout"
	SessionRevoked SecurityAction = "session_revoked"
	CodeIssued     SecurityAction = "code_issued"
	CodeRedeemed   SecurityAction = "code_redeemed"
	CodeRejected   SecurityAction = "code_rejected"
	Reset          SecurityAction = "password_reset"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index:idx_security_logs_user_time,priority:1"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	Action    SecurityAction `gorm:"type:varchar(32);not null;index"`
	IPAddress *string        `gorm:"type:varchar(45)"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"index:idx_security_logs_user_time,priority:2,sort:desc"`
}
