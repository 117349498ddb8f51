package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/hris-auth/internal/model"
)

// CompanyRepo reads tenant rows from the 'companies' table.  The auth core
// only consults companies when registering users, so no write methods are
// exposed here.
type CompanyRepo struct{ DB *sql.DB }

func NewCompanyRepo(db *sql.DB) *CompanyRepo { return &CompanyRepo{DB: db} }

const companyCols = "id,username,name,email,domain,super_admin_id,created_at"

// FindByID fetches a company by id.
func (r *CompanyRepo) FindByID(ctx context.Context, id uint64) (model.Company, error) {
	var c model.Company
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+companyCols+" FROM companies WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Username, &c.Name, &c.Email, &c.Domain, &c.SuperAdminID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}

// FindByDomain fetches the company owning an e-mail domain.
func (r *CompanyRepo) FindByDomain(ctx context.Context, domain string) (model.Company, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	var c model.Company
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+companyCols+" FROM companies WHERE domain=? LIMIT 1", domain).
		Scan(&c.ID, &c.Username, &c.Name, &c.Email, &c.Domain, &c.SuperAdminID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}
