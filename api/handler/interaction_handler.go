package handler

import (
	"net/http"

	"togetherdo/api/middleware"
	"togetherdo/internal/dto"
	"togetherdo/internal/entity"
	"togetherdo/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type InteractionHandler struct {
	Service  *service.InteractionService
	Validate *validator.Validate
}

func NewInteractionHandler(svc *service.InteractionService, validate *validator.Validate) *InteractionHandler {
	return &InteractionHandler{Service: svc, Validate: validate}
}

// Send handles POST /interactions/:feature.
func (h *InteractionHandler) Send(c echo.Context) error {
	senderID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	var req dto.SendInteractionRequest
	if err := bindAndValidate(c, h.Validate, &req); err != nil {
		return writeValidationError(c, err)
	}

	input, err := sendInput(entity.Feature(c.Param("feature")), senderID, req.ReceiverID, req.ResourceID)
	if err != nil {
		return writeValidationError(c, err)
	}
	input.Message = req.Message

	interaction, err := h.Service.Send(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.InteractionResponseFromEntity(interaction))
}

// Cooldown handles GET /interactions/:feature/cooldown?receiver_id=&resource_id=.
func (h *InteractionHandler) Cooldown(c echo.Context) error {
	senderID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	var resourceID *string
	if raw := c.QueryParam("resource_id"); raw != "" {
		resourceID = &raw
	}
	input, err := sendInput(entity.Feature(c.Param("feature")), senderID, c.QueryParam("receiver_id"), resourceID)
	if err != nil {
		return writeValidationError(c, err)
	}

	status, err := h.Service.CooldownStatus(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.CooldownResponseFromStatus(status))
}

// List handles GET /interactions?feature=&limit=&offset=.
func (h *InteractionHandler) List(c echo.Context) error {
	receiverID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	var feature *entity.Feature
	if raw := c.QueryParam("feature"); raw != "" {
		f := entity.Feature(raw)
		feature = &f
	}
	limit, offset := parseLimitOffset(c)

	ctx := c.Request().Context()
	items, err := h.Service.ListReceived(ctx, receiverID, feature, limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	unread, err := h.Service.UnreadCount(ctx, receiverID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.InteractionListFromEntities(items, unread))
}

func (h *InteractionHandler) MarkRead(c echo.Context) error {
	receiverID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	interactionID, ok := pathUUID(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	if err := h.Service.MarkRead(c.Request().Context(), receiverID, interactionID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sendInput(feature entity.Feature, senderID uuid.UUID, receiver string, resource *string) (service.SendInput, error) {
	receiverID, err := uuid.Parse(receiver)
	if err != nil {
		return service.SendInput{}, err
	}
	input := service.SendInput{Feature: feature, SenderID: senderID, ReceiverID: receiverID}
	if resource != nil {
		resourceID, err := uuid.Parse(*resource)
		if err != nil {
			return service.SendInput{}, err
		}
		input.ResourceID = &resourceID
	}
	return input, nil
}
