package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	mw "github.com/iliyamo/hris-auth/internal/middleware"
	"github.com/iliyamo/hris-auth/internal/model"
	"github.com/iliyamo/hris-auth/internal/queue"
	"github.com/iliyamo/hris-auth/internal/repository"
	"github.com/iliyamo/hris-auth/internal/utils"
)

type resetRequestReq struct {
	Email string `json:"email"`
}
type resetVerifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type changePasswordReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// RequestResetCode generates a one-time code for a known user, stores it
// with the configured validity window and enqueues the delivery job.  The
// code travels only over the mail channel: it never appears in the HTTP
// response.  Requesting again overwrites the stored code, invalidating the
// previous one.
func (h *AuthHandler) RequestResetCode(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
	}
	if err := h.Codes.Put(ctx, u.Email, code); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reset unavailable"})
	}

	// Delivery is at-least-once and asynchronous; a failed enqueue is logged
	// but the stored code stays valid, so the user can simply request again.
	if err := h.Queue.Publish(ctx, queue.OTPEmailEvent{Email: u.Email, Code: code}); err != nil {
		log.Printf("reset-code: enqueue delivery for %s failed: %v", u.Email, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "reset code sent"})
}

// VerifyResetCode checks a submitted code and, on success, logs the user in
// with a fresh token pair so the password can be changed.  A verified code
// is burned immediately; submitting it twice fails the second time.
func (h *AuthHandler) VerifyResetCode(c echo.Context) error {
	var req resetVerifyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/code required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	match, err := h.Codes.Verify(ctx, email, strings.TrimSpace(req.Code))
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "reset unavailable"})
	}
	if !match {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "code mismatch or expired"})
	}

	u, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Status != model.StatusActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive, contact your administrator"})
	}

	resp, err := h.issuePair(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// ChangePassword sets a new password for the authenticated user.  The
// target email in the body must match the token subject: a session can
// only ever change its own password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims, ok := c.Get(mw.CtxClaims).(utils.AccessClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/new_password required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.EqualFold(email, claims.Email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "token subject mismatch"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, claims.UserID(), hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
