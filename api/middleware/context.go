package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const principalKey = "auth_principal"

// Principal is the caller identity taken from a verified access token.
type Principal struct {
	UserID    uuid.UUID
	Role      string
	SessionID uuid.UUID
}

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}

func PrincipalFromContext(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(c)
	return p.UserID, ok
}

func SessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(c)
	return p.SessionID, ok
}
