package handler

import (
	"net/http"

	"togetherdo/api/middleware"
	"togetherdo/internal/dto"
	"togetherdo/internal/entity"
	"togetherdo/internal/service"

	"github.com/labstack/echo/v4"
)

type UsageHandler struct {
	Service *service.UsageService
}

func NewUsageHandler(svc *service.UsageService) *UsageHandler {
	return &UsageHandler{Service: svc}
}

func (h *UsageHandler) Status(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	feature := entity.Feature(c.Param("feature"))
	status, err := h.Service.Status(c.Request().Context(), userID, feature)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UsageResponseFromStatus(feature, status))
}

// ConsumeAIParse charges one AI todo parse against the daily quota.
func (h *UsageHandler) ConsumeAIParse(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	status, err := h.Service.Consume(c.Request().Context(), userID, entity.FeatureAIParse)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UsageResponseFromStatus(entity.FeatureAIParse, status))
}
