package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hris-auth/internal/cache"
	"github.com/iliyamo/hris-auth/internal/model"
	"github.com/iliyamo/hris-auth/internal/utils"
)

// Context keys populated by JWTAuth for downstream middleware and handlers.
const (
	CtxAccessToken = "access_token" // raw bearer token string
	CtxClaims      = "claims"       // utils.AccessClaims
	CtxUser        = "user"         // model.PublicUser session snapshot
	CtxUserID      = "user_id"      // string form of the subject id
	CtxRole        = "role"         // role claim string
)

// JWTAuth returns an Echo middleware that authenticates a Bearer access
// token.  The checks run in a fixed order that must not be rearranged:
// first the revocation registry (a revoked token must never authenticate,
// no matter how valid its signature), then signature and expiry, then the
// session snapshot.  A registry failure rejects the request (revocation
// checks fail closed), while a snapshot cache failure falls back to the
// token's own claims, because the cache is a performance path only.
func JWTAuth(accessSecret string, bl *cache.Blacklist, sessions *cache.SessionCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			ctx := c.Request().Context()

			revoked, err := bl.IsRevoked(ctx, raw)
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "authentication unavailable"})
			}
			if revoked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has been invalidated"})
			}

			claims, err := utils.ParseAccess(accessSecret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// The snapshot loader rebuilds the entry from the claims alone;
			// a cache miss therefore never turns into a denied request.
			snapshot, _ := sessions.GetOrLoad(ctx, claims.UserID(), func(context.Context) (model.PublicUser, error) {
				return model.PublicUser{
					ID:     claims.UserID(),
					Email:  claims.Email,
					Status: model.StatusActive,
					Role:   claims.Role,
				}, nil
			})
			if snapshot.Status != model.StatusActive {
				// account deactivated since the token was issued
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
			}

			c.Set(CtxAccessToken, raw)
			c.Set(CtxClaims, claims)
			c.Set(CtxUser, snapshot)
			c.Set(CtxUserID, strconv.FormatUint(claims.UserID(), 10))
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
