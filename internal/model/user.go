package model

import "time"

// User status values as stored in the `users.status` column.  Inactive
// accounts keep their credentials but are refused at login.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Role values as stored in the `users.role` column.  SUPER_ADMIN is the
// company owner and the only role allowed to register new accounts.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleEmployee   = "EMPLOYEE"
)

// User represents an application user record as stored in the `users`
// table.  PasswordHash holds a bcrypt digest; the plain password is never
// persisted.  CompanyID links the user to its tenant and is zero for the
// platform super admin before a company is attached.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique)
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Status       string    // users.status (ACTIVE / INACTIVE)
	Role         string    // users.role
	CompanyID    uint64    // users.company_id (0 when unassigned)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// FullName concatenates first and last name for display and token claims.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Company represents a tenant row in the `companies` table.  Domain is the
// e-mail domain its employees must use; the register endpoint rejects
// addresses outside it.
type Company struct {
	ID           uint64    // companies.id
	Username     string    // companies.username (unique slug)
	Name         string    // companies.name
	Email        string    // companies.email
	Domain       string    // companies.domain
	SuperAdminID uint64    // companies.super_admin_id
	CreatedAt    time.Time // companies.created_at
}

// PublicUser is the sanitized user shape returned to clients and cached as
// the session snapshot.  It carries no credentials.
type PublicUser struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	CompanyID uint64 `json:"company_id,omitempty"`
}

// Public converts a full user row into its client-facing shape.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Status:    u.Status,
		Role:      u.Role,
		CompanyID: u.CompanyID,
	}
}
