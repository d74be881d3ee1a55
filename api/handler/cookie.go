package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RefreshCookie carries the refresh token. It is scoped to /auth so no other
// route ever receives it.
type RefreshCookie struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func DefaultRefreshCookie() RefreshCookie {
	return RefreshCookie{Name: "refresh_token", Secure: true, SameSite: http.SameSiteStrictMode}
}

func (rc RefreshCookie) set(c echo.Context, token string, expiresIn int64) {
	if token == "" {
		return
	}
	c.SetCookie(rc.cookie(token, int(max(expiresIn, 0))))
}

func (rc RefreshCookie) clear(c echo.Context) {
	c.SetCookie(rc.cookie("", -1))
}

func (rc RefreshCookie) read(c echo.Context) string {
	cookie, err := c.Cookie(rc.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (rc RefreshCookie) cookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     rc.Name,
		Value:    value,
		Path:     "/auth",
		Domain:   rc.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   rc.Secure,
		SameSite: rc.SameSite,
	}
	if maxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	return cookie
}
