package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the procurement roles recognised by the workflow.
type UserRole string

const (
	RoleRequester   UserRole = "SITE_STOREKEEPER"
	RoleEngineer    UserRole = "ENGINEER"
	RoleOfficeClerk UserRole = "OFFICE_STOREKEEPER"
	RoleDirector    UserRole = "DIRECTOR"
)

// User represents an application user stored in the users table. Tokens are
// issued by the identity provider in front of this API; the password hash is
// kept only for signature confirmation.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// JWTClaims carries the authenticated actor identity through a request.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// CanApprove reports whether the role may approve purchase requests.
func (r UserRole) CanApprove() bool {
	return r == RoleEngineer
}

// ElevatedAuthority reports whether requests created by this role are
// approved on creation.
func (r UserRole) ElevatedAuthority() bool {
	return r == RoleOfficeClerk || r == RoleDirector
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
