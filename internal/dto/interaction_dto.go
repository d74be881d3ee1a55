package dto

import (
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/service"
)

type SendInteractionRequest struct {
	ReceiverID string  `json:"receiver_id" validate:"required,uuid"`
	ResourceID *string `json:"resource_id" validate:"omitempty,uuid"`
	Message    *string `json:"message"`
}

type InteractionResponse struct {
	ID         string     `json:"id"`
	Feature    string     `json:"feature"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	ResourceID *string    `json:"resource_id,omitempty"`
	Message    *string    `json:"message,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

func InteractionResponseFromEntity(interaction *entity.Interaction) InteractionResponse {
	response := InteractionResponse{
		ID:         interaction.ID.String(),
		Feature:    string(interaction.Feature),
		SenderID:   interaction.SenderID.String(),
		ReceiverID: interaction.ReceiverID.String(),
		Message:    interaction.Message,
		CreatedAt:  interaction.CreatedAt,
		ReadAt:     interaction.ReadAt,
	}
	if interaction.ResourceID != nil {
		id := interaction.ResourceID.String()
		response.ResourceID = &id
	}
	return response
}

type InteractionListResponse struct {
	Items       []InteractionResponse `json:"items"`
	UnreadCount int64                 `json:"unread_count"`
}

func InteractionListFromEntities(interactions []entity.Interaction, unread int64) InteractionListResponse {
	items := make([]InteractionResponse, 0, len(interactions))
	for i := range interactions {
		items = append(items, InteractionResponseFromEntity(&interactions[i]))
	}
	return InteractionListResponse{Items: items, UnreadCount: unread}
}

type CooldownResponse struct {
	IsActive         bool       `json:"is_active"`
	RemainingSeconds int        `json:"remaining_seconds"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
}

func CooldownResponseFromStatus(status service.CooldownStatus) CooldownResponse {
	return CooldownResponse{
		IsActive:         status.IsActive,
		RemainingSeconds: status.RemainingSeconds,
		EndsAt:           status.EndsAt,
	}
}

type UsageResponse struct {
	Feature   string    `json:"feature"`
	Used      int       `json:"used"`
	Limit     *int      `json:"limit"`
	Remaining *int      `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

func UsageResponseFromStatus(feature entity.Feature, status service.QuotaStatus) UsageResponse {
	return UsageResponse{
		Feature:   string(feature),
		Used:      status.Used,
		Limit:     status.Limit,
		Remaining: status.Remaining,
		ResetsAt:  status.ResetsAt,
	}
}
