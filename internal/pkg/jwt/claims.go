// internal/pkg/jwt/claims.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity claims the backend embeds in its tokens.
// The client never holds the signing key, so claims are decoded without
// signature verification and used for display and expiry tracking only; the
// backend re-validates the token on every request.
type Claims struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *Claims) Username() string {
	return c.Subject
}

// Expiry returns the token expiry and whether the claim was present.
func (c *Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// IssuedTime returns the iat claim and whether it was present.
func (c *Claims) IssuedTime() (time.Time, bool) {
	if c.IssuedAt == nil {
		return time.Time{}, false
	}
	return c.IssuedAt.Time, true
}

// Decode parses the token's embedded claims without verifying the signature.
// Any structural failure is returned as an error; callers treat that as
// "not authenticated", never as an anonymous-but-valid session.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token claims: %w", err)
	}
	return claims, nil
}
