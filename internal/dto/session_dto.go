package dto

import (
	"encoding/json"
	"time"

	"togetherdo/internal/entity"

	"github.com/google/uuid"
)

type SessionResponse struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	SignedInAt   time.Time `json:"signed_in_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Current      bool      `json:"current"`
}

// SessionResponses marks the session behind the calling access token as current.
func SessionResponses(sessions []entity.Session, current uuid.UUID) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionResponse{
			ID:           s.ID.String(),
			DeviceID:     s.DeviceID,
			DeviceName:   s.DeviceName,
			IPAddress:    s.IPAddress,
			UserAgent:    s.UserAgent,
			SignedInAt:   s.CreatedAt,
			LastActiveAt: s.LastActiveAt(),
			ExpiresAt:    s.ExpiresAt,
			Current:      s.ID == current,
		})
	}
	return out
}

type SecurityEventResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	IPAddress *string         `json:"ip_address,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func SecurityEventResponses(entries []entity.SecurityLog) []SecurityEventResponse {
	out := make([]SecurityEventResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SecurityEventResponse{
			ID:        e.ID.String(),
			Action:    string(e.Action),
			IPAddress: e.IPAddress,
			Metadata:  json.RawMessage(e.Metadata),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
