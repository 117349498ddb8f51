package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hris-auth/internal/cache"
	"github.com/iliyamo/hris-auth/internal/model"
	"github.com/iliyamo/hris-auth/internal/utils"
)

const testSecret = "access-secret"

func newAuthTestServer(t *testing.T) (*echo.Echo, *cache.Blacklist, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bl := cache.NewBlacklist(rdb)
	sessions := cache.NewSessionCache(rdb, 3*time.Hour)

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get(CtxUserID),
			"role":    c.Get(CtxRole),
		})
	}, JWTAuth(testSecret, bl, sessions))

	return e, bl, mr
}

func mintToken(t *testing.T, ttlMin int) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, model.User{
		ID: 42, Email: "alice@corp.com", FirstName: "Alice",
		Status: model.StatusActive, Role: model.RoleEmployee,
	}, ttlMin)
	require.NoError(t, err)
	return tok.Token
}

func doProtected(e *echo.Echo, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthValidToken(t *testing.T) {
	e, _, _ := newAuthTestServer(t)

	rec := doProtected(e, mintToken(t, 60))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"42"`)
	assert.Contains(t, rec.Body.String(), `"role":"EMPLOYEE"`)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	e, _, _ := newAuthTestServer(t)

	rec := doProtected(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthTamperedToken(t *testing.T) {
	e, _, _ := newAuthTestServer(t)

	rec := doProtected(e, mintToken(t, 60)+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestJWTAuthExpiredToken(t *testing.T) {
	e, _, _ := newAuthTestServer(t)

	rec := doProtected(e, mintToken(t, -1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token has expired")
}

func TestJWTAuthRevokedToken(t *testing.T) {
	e, bl, _ := newAuthTestServer(t)

	token := mintToken(t, 60)
	require.Equal(t, http.StatusOK, doProtected(e, token).Code)

	require.NoError(t, bl.Revoke(context.Background(), token))

	// a revoked token must never authenticate, even though its signature
	// and expiry are still perfectly valid
	rec := doProtected(e, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token has been invalidated")
}

func TestJWTAuthStoreDownFailsClosed(t *testing.T) {
	e, _, mr := newAuthTestServer(t)
	mr.Close()

	rec := doProtected(e, mintToken(t, 60))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	seed := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(CtxRole, role)
				return next(c)
			}
		}
	}
	e.GET("/admin", handler, seed(model.RoleEmployee), RequireRole(model.RoleSuperAdmin))
	e.GET("/super", handler, seed(model.RoleSuperAdmin), RequireRole(model.RoleSuperAdmin))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/super", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
