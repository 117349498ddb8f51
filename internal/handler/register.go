package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	mw "github.com/iliyamo/hris-auth/internal/middleware"
	"github.com/iliyamo/hris-auth/internal/model"
	"github.com/iliyamo/hris-auth/internal/repository"
	"github.com/iliyamo/hris-auth/internal/utils"
)

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"` // ADMIN | EMPLOYEE
}

// Register creates a new account inside the requester's company.  The
// route is limited to SUPER_ADMIN by middleware; this handler additionally
// requires the new address to match the company's e-mail domain.  Only
// ADMIN and EMPLOYEE roles can be granted here; a company has exactly one
// super admin and it is not created over HTTP.
func (h *AuthHandler) Register(c echo.Context) error {
	claims, ok := c.Get(mw.CtxClaims).(utils.AccessClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleAdmin && role != model.RoleEmployee {
		role = model.RoleEmployee
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	requester, err := h.Users.FindByID(ctx, claims.UserID())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load requester failed"})
	}
	if requester.CompanyID == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "requester has no company"})
	}
	company, err := h.Companies.FindByID(ctx, requester.CompanyID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load company failed"})
	}
	if !utils.IsCompanyEmail(req.Email, company.Domain) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email does not match company domain"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	u := model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Status:       model.StatusActive,
		Role:         role,
		CompanyID:    company.ID,
	}
	id, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u.ID = id

	return c.JSON(http.StatusCreated, echo.Map{"user": u.Public()})
}
