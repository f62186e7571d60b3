package model

import "time"

// Roles recognised by the authorization middleware.  Admins manage staff
// accounts and export the income ledger; every other endpoint is open to
// both roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a staff account.  Email is stored lower-cased and unique.
// Responses are built from it without PasswordHash.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string // bcrypt
	Role         string // RoleAdmin or RoleUser
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func IsValidRole(r string) bool { return r == RoleAdmin || r == RoleUser }

// RefreshToken is a persisted session.  Only the SHA-256 hex digest of the
// raw token is kept; a rotated or logged-out token has RevokedAt set.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether t can still be exchanged at now.
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
