package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hris-auth/internal/cache"
	"github.com/iliyamo/hris-auth/internal/config"
	mw "github.com/iliyamo/hris-auth/internal/middleware"
	"github.com/iliyamo/hris-auth/internal/model"
	"github.com/iliyamo/hris-auth/internal/queue"
	"github.com/iliyamo/hris-auth/internal/repository"
	"github.com/iliyamo/hris-auth/internal/utils"
)

// UserStore is the slice of persistent storage the auth handlers depend
// on.  *repository.UserRepo satisfies it; tests substitute an in-memory
// double.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, newHash string) error
}

// CompanyStore resolves tenants for the register flow.
type CompanyStore interface {
	FindByID(ctx context.Context, id uint64) (model.Company, error)
}

// OTPPublisher enqueues reset-code delivery jobs.  *queue.Publisher
// satisfies it.
type OTPPublisher interface {
	Publish(ctx context.Context, ev queue.OTPEmailEvent) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Users     UserStore
	Companies CompanyStore
	Blacklist *cache.Blacklist
	Sessions  *cache.SessionCache
	Codes     *cache.OTPStore
	Queue     OTPPublisher
}

func NewAuthHandler(cfg config.Config, users UserStore, companies CompanyStore,
	bl *cache.Blacklist, sessions *cache.SessionCache, codes *cache.OTPStore, q OTPPublisher) *AuthHandler {
	return &AuthHandler{
		Cfg: cfg, Users: users, Companies: companies,
		Blacklist: bl, Sessions: sessions, Codes: codes, Queue: q,
	}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    model.PublicUser `json:"user"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

// issuePair mints a fresh access+refresh token pair for a user.
func (h *AuthHandler) issuePair(u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u.Public(),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Token, Expires: refresh.Exp},
	}, nil
}

// Login: verify credentials and return a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if h.Cfg.CompanyDomain != "" && !utils.IsCompanyEmail(req.Email, h.Cfg.CompanyDomain) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email address"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// same response as a wrong password so accounts cannot be enumerated
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Status != model.StatusActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive, contact your administrator"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout: denylist both tokens of the current session and evict the cached
// snapshot.  The access token comes from the Authorization header (already
// authenticated by the JWT middleware), the refresh token from the body;
// both must belong to the same subject.  The two denylist writes and the
// eviction are deliberately not atomic: each token independently
// re-validates against its own entry, so partial completion is at worst a
// narrow re-exposure window, never a full security failure.
func (h *AuthHandler) Logout(c echo.Context) error {
	accessToken, _ := c.Get(mw.CtxAccessToken).(string)
	claims, ok := c.Get(mw.CtxClaims).(utils.AccessClaims)
	if accessToken == "" || !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)

	refreshClaims, err := utils.ParseRefresh(h.Cfg.RefreshSecret, refreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if refreshClaims.Subject != claims.Subject {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token subject mismatch"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	revoked, err := h.Blacklist.IsRevoked(ctx, refreshToken)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "logout unavailable"})
	}
	if revoked {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has been invalidated"})
	}

	if err := h.Blacklist.Revoke(ctx, accessToken); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "logout unavailable"})
	}
	if err := h.Blacklist.Revoke(ctx, refreshToken); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "logout unavailable"})
	}
	_ = h.Sessions.Evict(ctx, claims.UserID())

	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// Refresh: exchange a valid, non-revoked refresh token for a new token
// pair.  The used refresh token is denylisted so each one is exchanged at
// most once; the matching access token simply runs out its natural expiry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// revocation check comes first and fails closed, same as the middleware
	revoked, err := h.Blacklist.IsRevoked(ctx, refreshToken)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "authentication unavailable"})
	}
	if revoked {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has been invalidated"})
	}

	claims, err := utils.ParseRefresh(h.Cfg.RefreshSecret, refreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has expired"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	u, err := h.Users.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.Status != model.StatusActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive, contact your administrator"})
	}

	if err := h.Blacklist.Revoke(ctx, refreshToken); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "authentication unavailable"})
	}

	resp, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}
