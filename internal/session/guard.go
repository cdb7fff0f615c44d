// internal/session/guard.go
package session

import "kalakriti-client/internal/domain/user"

// RoleGate restricts a page or action to users whose normalized role is in
// the allowed set. An empty set admits any authenticated user.
type RoleGate struct {
	Allowed []user.Role
}

// AdminOnly gates the admin dashboard surfaces.
func AdminOnly() RoleGate {
	return RoleGate{Allowed: []user.Role{user.RoleAdmin}}
}

// ArtistOnly gates the artist dashboard surfaces.
func ArtistOnly() RoleGate {
	return RoleGate{Allowed: []user.Role{user.RoleArtist}}
}

// Allows reports whether the given role passes the gate.
func (g RoleGate) Allows(role user.Role) bool {
	if len(g.Allowed) == 0 {
		return true
	}
	normalized := user.NormalizeRole(string(role))
	for _, allowed := range g.Allowed {
		if normalized == allowed {
			return true
		}
	}
	return false
}

// Authorize combines the authentication and role checks a protected route
// performs before rendering.
func (m *Manager) Authorize(gate RoleGate) bool {
	u, ok := m.CurrentUser()
	if !ok {
		return false
	}
	return gate.Allows(u.Role)
}
