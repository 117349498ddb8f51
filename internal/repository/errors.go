// Package repository provides database access for users and companies.
// Sentinel errors let handlers distinguish failure scenarios without
// inspecting driver-specific error strings.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index.  Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a lookup matches no row.  Handlers translate
// this into an HTTP 404 response (or 401 on credential paths, where unknown
// emails must be indistinguishable from wrong passwords).
var ErrNotFound = errors.New("not found")
