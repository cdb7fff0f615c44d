// Package session owns the client-side auth lifecycle: it translates raw
// token material into a usable session, persists it, refreshes it silently,
// and broadcasts every state change on the auth event bus.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"kalakriti-client/internal/domain/auth"
	"kalakriti-client/internal/domain/user"
	"kalakriti-client/internal/gateway"
	xerrors "kalakriti-client/internal/pkg/errors"
	"kalakriti-client/internal/pkg/events"
	"kalakriti-client/internal/pkg/jwt"
	"kalakriti-client/internal/store"
)

// refreshWindow is the low-water mark: when time-to-expiry drops below it,
// ShouldRefreshToken starts advising a silent refresh.
const refreshWindow = 5 * time.Minute

// Manager is the single owner of the session. The user snapshot is never
// present without a live token: every path that drops the token drops the
// user in the same step.
type Manager struct {
	api    *gateway.Client
	store  store.StateStore
	bus    *events.Bus
	logger *zap.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      *user.User

	// refreshMu serializes silent refreshes so concurrent 401s from
	// in-flight requests trigger one exchange, not a stampede.
	refreshMu sync.Mutex

	now func() time.Time
}

// NewManager wires the session manager. Call Restore afterwards to pick up a
// persisted session, and register the manager on the gateway with
// SetAuthenticator.
func NewManager(api *gateway.Client, st store.StateStore, bus *events.Bus, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:    api,
		store:  st,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// Restore loads the persisted session, drops it if expired, and refreshes
// the profile best-effort so consumers can paint instantly from the snapshot
// while the richer fetch resolves.
func (m *Manager) Restore(ctx context.Context) {
	creds, err := m.store.LoadCredentials()
	if err != nil {
		if !xerrors.Is(err, store.ErrNotFound) {
			m.logger.Warn("failed to load persisted credentials", zap.Error(err))
		}
		return
	}

	if creds.Expired(m.now()) {
		m.logger.Info("persisted session has expired, clearing",
			zap.String("username", creds.Username))
		if err := m.store.ClearCredentials(); err != nil {
			m.logger.Warn("failed to clear expired credentials", zap.Error(err))
		}
		return
	}

	known := m.snapshotUser(creds)

	m.mu.Lock()
	m.token = creds.Token
	m.expiresAt = creds.ExpiresAt
	m.user = known
	m.mu.Unlock()

	m.fetchProfile(ctx, known)
}

// snapshotUser picks the instant-paint identity: the persisted user snapshot
// if readable, otherwise whatever the token claims carry.
func (m *Manager) snapshotUser(creds *store.Credentials) *user.User {
	if u, err := m.store.LoadUser(); err == nil {
		merged := u.Merge(nil)
		return &merged
	}
	if claims, err := jwt.Decode(creds.Token); err == nil {
		return userFromClaims(claims)
	}
	return &user.User{
		ID:       creds.UserID,
		Username: creds.Username,
		Role:     user.NormalizeRole(creds.Role),
	}
}

// Login authenticates against the backend. On success the token is persisted
// with its expiry, identity is derived from the token claims (falling back
// to the response payload), and a best-effort profile fetch enriches it.
// A failed profile fetch is absorbed; login succeeds once any valid identity
// is established.
func (m *Manager) Login(ctx context.Context, username, password string) bool {
	var resp auth.LoginResponse
	err := m.api.Post(ctx, "/api/auth/login", auth.LoginRequest{Username: username, Password: password}, &resp, gateway.WithoutAuth())
	if err != nil {
		m.logger.Info("login request failed", zap.String("username", username), zap.Error(err))
		return false
	}
	if resp.Token == "" {
		return false
	}

	claims, claimsErr := jwt.Decode(resp.Token)

	expiresAt, ok := resolveExpiry(resp.ExpiresAt, claims)
	if !ok {
		// No server expiry and no decodable exp claim: fail closed rather
		// than hold a token whose lifetime is unknowable.
		m.logger.Warn("login response carried no usable expiry, rejecting token",
			zap.String("username", username))
		return false
	}

	var identity *user.User
	if claimsErr == nil {
		identity = userFromClaims(claims)
	}
	if identity == nil || identity.ID == 0 {
		if resp.User != nil {
			merged := resp.User.Merge(identity)
			identity = &merged
		}
	}
	if identity == nil {
		m.logger.Warn("login response carried no identity", zap.String("username", username))
		return false
	}

	m.establish(resp.Token, expiresAt, identity)
	m.bus.Emit(events.EventLogin, identity.Username)

	m.fetchProfile(ctx, identity)
	return true
}

// Register creates the account and then logs in with the same credentials;
// registration alone does not establish a session.
func (m *Manager) Register(ctx context.Context, req auth.RegisterRequest) bool {
	var created user.User
	err := m.api.Post(ctx, "/api/auth/register", req, &created, gateway.WithoutAuth())
	if err != nil {
		m.logger.Info("registration request failed", zap.String("username", req.Username), zap.Error(err))
		return false
	}
	return m.Login(ctx, req.Username, req.Password)
}

// Logout clears the token, the user snapshot, and the persisted record in
// one step, then notifies subscribers.
func (m *Manager) Logout() {
	m.teardown()
	m.bus.Emit(events.EventLogout, nil)
}

// ForceLogout is the gateway's escalation path after an unrecoverable 401.
// It behaves like Logout but announces the session as expired so the UI can
// route to login with a return path.
func (m *Manager) ForceLogout() {
	m.teardown()
	m.bus.Emit(events.EventExpired, nil)
}

func (m *Manager) teardown() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.user = nil
	m.mu.Unlock()

	if err := m.store.ClearCredentials(); err != nil {
		m.logger.Warn("failed to clear persisted credentials", zap.Error(err))
	}
}

// IsAuthenticated is true iff a token exists and its expiry is strictly in
// the future.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.expiresAt.After(m.now())
}

// ShouldRefreshToken advises a silent refresh when time-to-expiry is under
// five minutes. Advisory only: the gateway consults it before calls; there
// is no background timer.
func (m *Manager) ShouldRefreshToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || m.expiresAt.IsZero() {
		return false
	}
	return m.expiresAt.Sub(m.now()) < refreshWindow
}

// ShouldRefresh implements gateway.Authenticator.
func (m *Manager) ShouldRefresh() bool {
	return m.ShouldRefreshToken()
}

// Token implements gateway.Authenticator.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", false
	}
	return m.token, true
}

// RefreshToken exchanges the current token for a fresh one. On any failure
// the session is torn down and false is returned. Time-to-expiry is never
// consulted here: a 401 on an unexpired token (revocation, key rotation)
// still needs a real exchange.
func (m *Manager) RefreshToken(ctx context.Context) bool {
	m.mu.RLock()
	before := m.token
	m.mu.RUnlock()
	if before == "" {
		return false
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.RLock()
	current := m.token
	m.mu.RUnlock()

	if current == "" {
		return false
	}
	// Another in-flight request completed the exchange while we waited on
	// the lock; the replacement token is already in place.
	if current != before {
		return true
	}

	var resp auth.RefreshResponse
	err := m.api.Post(ctx, "/api/auth/refresh", auth.RefreshRequest{Token: current}, &resp, gateway.WithoutRetry())
	if err != nil || resp.Token == "" {
		m.logger.Info("token refresh failed, logging out", zap.Error(err))
		m.Logout()
		return false
	}

	claims, claimsErr := jwt.Decode(resp.Token)
	expiresAt, ok := resolveExpiry(resp.ExpiresAt, claims)
	if !ok {
		m.logger.Warn("refreshed token carried no usable expiry, logging out")
		m.Logout()
		return false
	}

	m.mu.Lock()
	m.token = resp.Token
	m.expiresAt = expiresAt
	current = resp.Token
	snapshot := m.user
	m.mu.Unlock()

	creds := m.credentialsFor(current, expiresAt, snapshot)
	if claimsErr == nil && claims.Role != "" {
		creds.Role = string(user.NormalizeRole(claims.Role))
	}
	if err := m.store.SaveCredentials(creds); err != nil {
		m.logger.Warn("failed to persist refreshed credentials", zap.Error(err))
	}

	m.bus.Emit(events.EventRefresh, nil)
	return true
}

// CurrentUser returns the session's user. Never present unless the token is
// present and unexpired.
func (m *Manager) CurrentUser() (*user.User, bool) {
	if !m.IsAuthenticated() {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, false
	}
	u := *m.user
	return &u, true
}

// Role returns the normalized role of the current session, or the CUSTOMER
// fallback when unauthenticated callers ask anyway.
func (m *Manager) Role() user.Role {
	if u, ok := m.CurrentUser(); ok {
		return u.Role
	}
	return user.RoleFallback
}

// UpdateUser replaces the session's user snapshot after a profile edit.
func (m *Manager) UpdateUser(next user.User) {
	merged := next.Merge(nil)

	m.mu.Lock()
	if m.token == "" {
		m.mu.Unlock()
		return
	}
	m.user = &merged
	m.mu.Unlock()

	if err := m.store.SaveUser(&merged); err != nil {
		m.logger.Warn("failed to persist user snapshot", zap.Error(err))
	}
}

// establish swaps in a fresh session and persists it.
func (m *Manager) establish(token string, expiresAt time.Time, identity *user.User) {
	merged := identity.Merge(nil)

	m.mu.Lock()
	m.token = token
	m.expiresAt = expiresAt
	m.user = &merged
	m.mu.Unlock()

	if err := m.store.SaveCredentials(m.credentialsFor(token, expiresAt, &merged)); err != nil {
		m.logger.Warn("failed to persist credentials", zap.Error(err))
	}
	if err := m.store.SaveUser(&merged); err != nil {
		m.logger.Warn("failed to persist user snapshot", zap.Error(err))
	}
}

func (m *Manager) credentialsFor(token string, expiresAt time.Time, u *user.User) *store.Credentials {
	creds := &store.Credentials{Token: token, ExpiresAt: expiresAt}
	if u != nil {
		creds.Role = string(u.Role)
		creds.UserID = u.ID
		creds.Username = u.Username
	}
	return creds
}

// fetchProfile retrieves the fuller profile and merges it over the known
// identity without discarding fields the fetch does not provide. Failures
// are absorbed unless they prove the session dead and nothing is known.
func (m *Manager) fetchProfile(ctx context.Context, known *user.User) {
	var profile user.User
	err := m.api.Get(ctx, "/api/users/me", &profile, gateway.WithoutRetry())
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) &&
			(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) &&
			known == nil {
			m.teardown()
			return
		}
		m.logger.Debug("profile fetch failed, keeping known identity", zap.Error(err))
		return
	}
	if profile.ID == 0 && profile.Username == "" {
		return
	}

	merged := profile.Merge(known)

	m.mu.Lock()
	if m.token == "" {
		m.mu.Unlock()
		return
	}
	m.user = &merged
	m.mu.Unlock()

	if err := m.store.SaveUser(&merged); err != nil {
		m.logger.Warn("failed to persist user snapshot", zap.Error(err))
	}
}

// userFromClaims builds the identity embedded in the token.
func userFromClaims(claims *jwt.Claims) *user.User {
	u := &user.User{
		ID:        claims.UserID,
		Username:  claims.Username(),
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      user.NormalizeRole(claims.Role),
	}
	if iat, ok := claims.IssuedTime(); ok {
		u.CreatedAt = iat.UTC().Format(time.RFC3339)
	}
	return u
}

// resolveExpiry prefers the server-supplied expiry field and falls back to
// the token's own exp claim. Reports false when neither is usable.
func resolveExpiry(wire string, claims *jwt.Claims) (time.Time, bool) {
	if wire != "" {
		if t, err := parseWireTime(wire); err == nil {
			return t, true
		}
	}
	if claims != nil {
		if exp, ok := claims.Expiry(); ok {
			return exp, true
		}
	}
	return time.Time{}, false
}

// parseWireTime accepts the backend's two timestamp shapes: RFC 3339 and a
// zone-less LocalDateTime.
func parseWireTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
