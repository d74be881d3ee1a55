package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"togetherdo/internal/service"

	"github.com/labstack/echo/v4"
)

var kindStatus = map[string]int{
	"invalid_input":                  http.StatusBadRequest,
	"email_already_registered":       http.StatusConflict,
	"invalid_credentials":            http.StatusUnauthorized,
	"invalid_token":                  http.StatusUnauthorized,
	"email_not_verified":             http.StatusForbidden,
	"user_not_found":                 http.StatusNotFound,
	"session_not_found":              http.StatusNotFound,
	"self_action_not_allowed":        http.StatusBadRequest,
	"not_friends":                    http.StatusForbidden,
	"resource_not_found":             http.StatusNotFound,
	"resource_not_owned_by_receiver": http.StatusForbidden,
	"quota_exceeded":                 http.StatusTooManyRequests,
	"cooldown_active":                http.StatusTooManyRequests,
	"interaction_not_found":          http.StatusNotFound,
	"not_interaction_receiver":       http.StatusForbidden,
	"invalid_code":                   http.StatusBadRequest,
	"expired":                        http.StatusBadRequest,
	"token_not_found":                http.StatusBadRequest,
	"token_used":                     http.StatusConflict,
	"max_attempts_exceeded":          http.StatusTooManyRequests,
	"resend_too_soon":                http.StatusTooManyRequests,
	"conflict":                       http.StatusServiceUnavailable,
}

func writeError(c echo.Context, status int, kind string, message string) error {
	return c.JSON(status, map[string]any{"kind": kind, "message": message})
}

// writeServiceError renders err as {"kind", "message", ...details}.
// Infrastructure failures never leak their text.
func writeServiceError(c echo.Context, err error) error {
	kind := service.ErrorKind(err)
	status, ok := kindStatus[kind]
	if !ok {
		c.Logger().Error(err)
		return writeError(c, http.StatusInternalServerError, "internal", "please try again")
	}

	body := map[string]any{"kind": kind, "message": err.Error()}
	if kind == "conflict" {
		body["message"] = "please try again"
	}

	var quota *service.QuotaExceededError
	if errors.As(err, &quota) {
		body["feature"] = quota.Feature
		body["used"] = quota.Used
		body["limit"] = quota.Limit
		body["resets_at"] = quota.ResetsAt.UTC().Format(time.RFC3339)
		setRetryAfter(c, int(time.Until(quota.ResetsAt).Seconds()))
	}
	var cooldown *service.CooldownActiveError
	if errors.As(err, &cooldown) {
		body["feature"] = cooldown.Feature
		body["remaining_seconds"] = cooldown.RemainingSeconds
		body["ends_at"] = cooldown.EndsAt.UTC().Format(time.RFC3339)
		setRetryAfter(c, cooldown.RemainingSeconds)
	}
	return c.JSON(status, body)
}

func setRetryAfter(c echo.Context, seconds int) {
	if seconds < 1 {
		seconds = 1
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
}

func writeValidationError(c echo.Context, err error) error {
	return writeError(c, http.StatusBadRequest, "invalid_input", err.Error())
}

func unauthorized(c echo.Context) error {
	return writeError(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
}
