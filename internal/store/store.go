// Package store persists client-local state (credentials, the last-known
// user snapshot, and the cart) across restarts. Adapters share one port so
// the session manager and cart never care which backend is wired in.
package store

import (
	"time"

	"kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/user"
	xerrors "kalakriti-client/internal/pkg/errors"
)

// Credentials is the persisted credential record. Role, user id and username
// are denormalized alongside the token so callers get synchronous reads
// without decoding the token every time.
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
}

// Expired reports whether the record's expiry has passed.
func (c *Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// ErrNotFound is returned when the requested state has never been saved or
// has been cleared.
var ErrNotFound = xerrors.ErrNotFound

// StateStore is the persistence port. Implementations are safe for
// concurrent use within one process; across processes the store is
// best-effort single-writer and the last write wins.
type StateStore interface {
	// SaveCredentials replaces the credential record.
	SaveCredentials(creds *Credentials) error
	// LoadCredentials returns ErrNotFound when no record exists. A corrupted
	// record also reads as ErrNotFound so a bad snapshot can never brick
	// startup.
	LoadCredentials() (*Credentials, error)
	// ClearCredentials removes the credential record AND the user snapshot
	// as one logical step: there must be no window where one is set without
	// the other.
	ClearCredentials() error

	SaveUser(u *user.User) error
	LoadUser() (*user.User, error)

	SaveCart(lines []cart.Line) error
	// LoadCart restores the persisted cart, silently dropping entries with a
	// missing product id or an unrecognizable shape.
	LoadCart() ([]cart.Line, error)
	ClearCart() error
}
