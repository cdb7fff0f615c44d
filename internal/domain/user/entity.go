// internal/domain/user/entity.go
package user

import "strings"

// Role is the closed set of storefront roles.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleArtist   Role = "ARTIST"
	RoleCustomer Role = "CUSTOMER"
)

// RoleFallback is applied to any unrecognized role string. The backend has
// shipped both plain and "ROLE_"-prefixed role names; mapping unknowns to
// CUSTOMER keeps the client rendering instead of failing.
const RoleFallback = RoleCustomer

// NormalizeRole maps any incoming role string onto the closed role set.
// It strips an optional ROLE_ prefix, upper-cases, and falls back to
// CUSTOMER for anything unrecognized. Total: never fails.
func NormalizeRole(raw string) Role {
	if raw == "" {
		return RoleFallback
	}

	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "ROLE_")

	switch Role(cleaned) {
	case RoleAdmin, RoleArtist, RoleCustomer:
		return Role(cleaned)
	}
	return RoleFallback
}

// User is the storefront's view of an account. Timestamps are carried as the
// backend's wire strings; the client only displays them.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"createdAt"`
}

// Merge overlays u with any zero-valued fields filled in from fallback.
// Used when a richer profile fetch should not discard identity already known
// from token claims (or the other way around).
func (u User) Merge(fallback *User) User {
	if fallback == nil {
		u.Role = NormalizeRole(string(u.Role))
		return u
	}

	if u.ID == 0 {
		u.ID = fallback.ID
	}
	if u.Username == "" {
		u.Username = fallback.Username
	}
	if u.Email == "" {
		u.Email = fallback.Email
	}
	if u.FirstName == "" {
		u.FirstName = fallback.FirstName
	}
	if u.LastName == "" {
		u.LastName = fallback.LastName
	}
	if u.CreatedAt == "" {
		u.CreatedAt = fallback.CreatedAt
	}
	if u.Role == "" {
		u.Role = fallback.Role
	}
	u.Role = NormalizeRole(string(u.Role))
	return u
}
