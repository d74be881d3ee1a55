package handler

import (
	"context"
	"net/http"

	"togetherdo/api/middleware"
	"togetherdo/internal/dto"
	"togetherdo/internal/entity"
	"togetherdo/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Cookie   RefreshCookie
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, cookie RefreshCookie) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = DefaultRefreshCookie().Name
	}
	return &AuthHandler{Service: svc, Validate: validate, Cookie: cookie}
}

// Register answers 201 whether a new account was created or a pending one
// got a fresh code.
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := bindAndValidate(c, h.Validate, &req); err != nil {
		return writeValidationError(c, err)
	}
	err := h.Service.Register(c.Request().Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req dto.VerifyEmailRequest
	if err := bindAndValidate(c, h.Validate, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := h.Service.VerifyEmail(c.Request().Context(), req.Email, req.Code); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	return h.emailAction(c, h.Service.ResendVerification)
}

func (h *AuthHandler) PasswordForgot(c echo.Context) error {
	return h.emailAction(c, h.Service.RequestPasswordReset)
}

func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := bindAndValidate(c, h.Validate, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := h.Service.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return writeServiceError(c, err)
	}
	h.Cookie.clear(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := bindAndValidate(c, h.Validate, &req); err != nil {
		return writeValidationError(c, err)
	}
	result, err := h.Service.Login(c.Request().Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		IPAddress:  clientIP(c),
		UserAgent:  stringPtr(c.Request().UserAgent()),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return h.writeTokens(c, result)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.Cookie.read(c)
	if token == "" {
		return unauthorized(c)
	}
	result, err := h.Service.Refresh(c.Request().Context(), token)
	if err != nil {
		h.Cookie.clear(c)
		return writeServiceError(c, err)
	}
	return h.writeTokens(c, result)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.Service.Logout(c.Request().Context(), principal.SessionID, principal.UserID, clientIP(c)); err != nil {
		return writeServiceError(c, err)
	}
	h.Cookie.clear(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.Service.LogoutAll(c.Request().Context(), userID, clientIP(c)); err != nil {
		return writeServiceError(c, err)
	}
	h.Cookie.clear(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Sessions(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	sessions, err := h.Service.ListSessions(c.Request().Context(), principal.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SessionResponses(sessions, principal.SessionID))
}

func (h *AuthHandler) RevokeSession(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	if err := h.Service.RevokeSession(c.Request().Context(), userID, sessionID, clientIP(c)); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	user, err := h.Service.GetCurrentUser(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) AdminListUsers(c echo.Context) error {
	limit, offset := parseLimitOffset(c)
	users, err := h.Service.ListUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponsesFromEntities(users))
}

func (h *AuthHandler) AdminRevokeUserSessions(c echo.Context) error {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	if err := h.Service.RevokeUserSessions(c.Request().Context(), userID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AdminSecurityLog accepts repeated ?action= filters.
func (h *AuthHandler) AdminSecurityLog(c echo.Context) error {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	var actions []entity.SecurityAction
	for _, action := range c.QueryParams()["action"] {
		actions = append(actions, entity.SecurityAction(action))
	}
	limit, _ := parseLimitOffset(c)
	entries, err := h.Service.SecurityEvents(c.Request().Context(), userID, actions, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SecurityEventResponses(entries))
}

// writeTokens keeps the refresh token out of the body.
func (h *AuthHandler) writeTokens(c echo.Context, result *service.LoginResult) error {
	h.Cookie.set(c, result.RefreshToken, result.RefreshExpiresIn)
	return c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
	})
}

func (h *AuthHandler) emailAction(c echo.Context, action func(ctx context.Context, email string) error) error {
	var req dto.EmailRequest
	if err := bindAndValidate(c, h.Validate, &req); err != nil {
		return writeValidationError(c, err)
	}
	if err := action(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}
