package model

import "time"

// Identity is an authenticated user as reported by the identity provider.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the identity carries the admin role claim.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Session is the result of completing a magic-link sign-in.
type Session struct {
	AccessToken string
	Identity    Identity
	ExpiresAt   time.Time
}
