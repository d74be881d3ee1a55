package middleware

import (
	"net/http"
	"strings"

	"togetherdo/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	JWT *utils.JWTManager
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, ok := m.authenticate(c.Request())
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		SetPrincipal(c, principal)
		return next(c)
	}
}

func (m AuthMiddleware) authenticate(r *http.Request) (Principal, bool) {
	if m.JWT == nil {
		return Principal{}, false
	}
	token := extractBearerToken(r)
	if token == "" {
		return Principal{}, false
	}
	claims, err := m.JWT.ParseAccessToken(token)
	if err != nil {
		return Principal{}, false
	}
	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return Principal{}, false
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return Principal{}, false
	}
	return Principal{UserID: userID, Role: claims.Role, SessionID: sessionID}, true
}

func extractBearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
