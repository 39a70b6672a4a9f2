package models

import (
	"github.com/google/uuid"
)

// Admin is the operator allowed to change scoring configuration
type Admin struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// UserRole represents available user roles
type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

// IsAdmin returns true if the operator has the admin role
func (a *Admin) IsAdmin() bool {
	return a.Role == string(RoleAdmin)
}

// AdminID derives a stable identifier for an admin email
func AdminID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email))
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
