// internal/domain/auth/dto.go
package auth

import "kalakriti-client/internal/domain/user"

// LoginRequest for user login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse as issued by the auth endpoint. ExpiresAt is optional; when
// absent the expiry is decoded from the token's own exp claim. User may also
// be absent, in which case identity comes from the token claims.
type LoginResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"tokenType,omitempty"`
	ExpiresAt string     `json:"expiresAt,omitempty"`
	User      *user.User `json:"user,omitempty"`
}

// RegisterRequest for account creation. Registration alone does not establish
// a session; the caller logs in with the same credentials afterwards.
type RegisterRequest struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      user.Role `json:"role"`
}

// RefreshRequest exchanges the current token for a fresh one.
type RefreshRequest struct {
	Token string `json:"token"`
}

// RefreshResponse carries the replacement token.
type RefreshResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}
