package routes

import (
	"net/http"
	"time"

	"togetherdo/api/handler"
	"togetherdo/api/middleware"
	"togetherdo/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Interactions   *handler.InteractionHandler
	Usage          *handler.UsageHandler
	Health         handler.HealthHandler
	Metrics        http.Handler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
	SendRate       *middleware.RateLimiter
}

type RateConfig struct {
	PerSecond float64
	Burst     int
}

func NewRouter(e *echo.Echo, authMiddleware middleware.AuthMiddleware, limits RateConfig) *Router {
	perSecond := rate.Limit(limits.PerSecond)
	if perSecond <= 0 {
		perSecond = rate.Limit(1)
	}
	burst := limits.Burst
	if burst <= 0 {
		burst = 5
	}
	return &Router{
		Echo:           e,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(perSecond*2, burst*2, 5*time.Minute, middleware.ByIP),
		LoginRate:      middleware.NewRateLimiter(perSecond, burst, 10*time.Minute, middleware.ByIP),
		SendRate:       middleware.NewRateLimiter(perSecond*2, burst*2, 10*time.Minute, middleware.ByUser),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo
	requireAuth := r.AuthMiddleware.RequireAuth

	e.GET("/healthz", r.Health.Healthz)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	auth := e.Group("/auth")
	auth.POST("/register", r.Auth.Register, r.AuthRate.Middleware())
	auth.POST("/verify-email", r.Auth.VerifyEmail, r.LoginRate.Middleware())
	auth.POST("/verify-email/resend", r.Auth.ResendVerification, r.LoginRate.Middleware())
	auth.POST("/login", r.Auth.Login, r.LoginRate.Middleware())
	auth.POST("/refresh", r.Auth.Refresh, r.AuthRate.Middleware())
	auth.POST("/logout", r.Auth.Logout, requireAuth)
	auth.POST("/logout-all", r.Auth.LogoutAll, requireAuth)
	auth.POST("/password/forgot", r.Auth.PasswordForgot, r.LoginRate.Middleware())
	auth.POST("/password/reset", r.Auth.PasswordReset, r.LoginRate.Middleware())

	auth.GET("/sessions", r.Auth.Sessions, requireAuth)
	auth.DELETE("/sessions/:id", r.Auth.RevokeSession, requireAuth)

	e.GET("/me", r.Auth.Me, requireAuth)

	interactions := e.Group("/interactions", requireAuth)
	interactions.GET("", r.Interactions.List)
	interactions.POST("/:feature", r.Interactions.Send, r.SendRate.Middleware())
	interactions.GET("/:feature/cooldown", r.Interactions.Cooldown)
	interactions.POST("/:id/read", r.Interactions.MarkRead)

	usage := e.Group("/usage", requireAuth)
	usage.GET("/:feature", r.Usage.Status)
	usage.POST("/ai_parse/consume", r.Usage.ConsumeAIParse, r.SendRate.Middleware())

	admin := e.Group("/admin", requireAuth, middleware.RequireRole(entity.UserRoleAdmin))
	admin.GET("/users", r.Auth.AdminListUsers)
	admin.POST("/users/:id/revoke-sessions", r.Auth.AdminRevokeUserSessions)
	admin.GET("/users/:id/security-log", r.Auth.AdminSecurityLog)
}
