package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"togetherdo/internal/entity"
	"togetherdo/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

var testJWT = &utils.JWTManager{Secret: []byte("middleware-secret"), Issuer: "togetherdo-test"}

func newTestServer(handlers ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/private", func(c echo.Context) error {
		principal, _ := PrincipalFromContext(c)
		return c.String(http.StatusOK, principal.UserID.String())
	}, handlers...)
	return e
}

func do(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func issue(t *testing.T, userID uuid.UUID, role entity.UserRole) string {
	t.Helper()
	token, _, err := testJWT.IssueAccessToken(userID.String(), string(role), uuid.NewString())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestRequireAuth(t *testing.T) {
	auth := AuthMiddleware{JWT: testJWT}
	e := newTestServer(auth.RequireAuth)
	userID := uuid.New()

	if rec := do(e, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}
	if rec := do(e, "not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}

	forged, _, _ := (&utils.JWTManager{Secret: []byte("other"), Issuer: testJWT.Issuer}).IssueAccessToken(userID.String(), "user", uuid.NewString())
	if rec := do(e, forged); rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature: status = %d", rec.Code)
	}

	rec := do(e, issue(t, userID, entity.UserRoleUser))
	if rec.Code != http.StatusOK || rec.Body.String() != userID.String() {
		t.Fatalf("valid token: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	auth := AuthMiddleware{JWT: testJWT}
	e := newTestServer(auth.RequireAuth, RequireRole(entity.UserRoleAdmin))

	if rec := do(e, issue(t, uuid.New(), entity.UserRoleUser)); rec.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: status = %d", rec.Code)
	}
	if rec := do(e, issue(t, uuid.New(), entity.UserRoleAdmin)); rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d", rec.Code)
	}
}

func TestRateLimiterPerKey(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Minute), 2, time.Hour, ByIP)
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	e := newTestServer(limiter.Middleware())
	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.RemoteAddr = ip + ":4242"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := range 2 {
		if code := from("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d within burst: status = %d", i, code)
		}
	}
	if code := from("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("over burst: status = %d", code)
	}
	if code := from("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client throttled: status = %d", code)
	}

	now = now.Add(time.Minute)
	if code := from("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("after refill: status = %d", code)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1, time.Minute, ByIP)
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.allow("a")
	now = now.Add(2 * time.Minute)
	limiter.allow("b")

	if _, ok := limiter.visitors["a"]; ok {
		t.Fatal("idle visitor was not evicted")
	}
	if len(limiter.visitors) != 1 {
		t.Fatalf("visitors = %d, want 1", len(limiter.visitors))
	}
}
