package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hris-auth/internal/config"
	"github.com/iliyamo/hris-auth/internal/handler"
	"github.com/iliyamo/hris-auth/internal/middleware"
	"github.com/iliyamo/hris-auth/internal/model"
)

// RegisterRoutes wires every endpoint of the auth service onto the Echo
// instance.  Credential endpoints sit behind the Redis token-bucket
// limiter; session endpoints sit behind the JWT middleware, which runs the
// denylist check before anything else touches the request.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler, cfg config.Config, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/status", handler.Status)

	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	authed := middleware.JWTAuth(cfg.AccessSecret, a.Blacklist, a.Sessions)

	g := e.Group("/api/auth")

	// Anonymous flows.  Login and the reset-code endpoints take the brunt
	// of guessing attacks, so they are rate limited per client IP.
	g.POST("/login", a.Login, limited)
	g.POST("/refresh-token", a.Refresh)
	g.POST("/reset-password", a.RequestResetCode, limited)
	g.POST("/reset-password/verify", a.VerifyResetCode, limited)

	// Session flows.  Logout and password change act on the caller's own
	// session; register additionally requires the tenant super admin.
	g.POST("/logout", a.Logout, authed)
	g.PUT("/reset-password", a.ChangePassword, authed)
	g.POST("/register", a.Register, authed, middleware.RequireRole(model.RoleSuperAdmin))
}
