package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"kalakriti-client/internal/domain/user"
	"kalakriti-client/internal/gateway"
	"kalakriti-client/internal/pkg/events"
	"kalakriti-client/internal/pkg/jwt"
	"kalakriti-client/internal/store"
)

// signToken mints an HS256 token with the backend's claim layout. The client
// never verifies signatures, so any key works.
func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func testClaims(username string, role string, exp time.Time) jwt.Claims {
	return jwt.Claims{
		UserID:    42,
		Email:     "anaya@example.com",
		FirstName: "Anaya",
		LastName:  "Rao",
		Role:      role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: gojwt.NewNumericDate(exp),
			IssuedAt:  gojwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(ev events.Event, _ interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event(nil), l.events...)
}

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *FakeStateStore, *eventLog) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := NewFakeStateStore()
	bus := events.NewBus()
	log := &eventLog{}
	bus.Subscribe(log.record)

	api := gateway.New(srv.URL, 5*time.Second, nil)
	m := NewManager(api, st, bus, nil)
	api.SetAuthenticator(m)
	return m, st, log
}

// Requirement: a successful login establishes the session, persists the
// credentials, and enriches identity with the fetched profile without
// discarding fields already known from the token claims.
func TestManager_Login(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := signToken(t, testClaims("anaya", "ROLE_ARTIST", exp))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		// The profile carries the createdAt the claims lack, but no names.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": 42, "username": "anaya", "createdAt": "2025-02-10T09:30:00",
		})
	})

	m, st, log := newTestManager(t, mux)

	ok := m.Login(context.Background(), "anaya", "secret")

	if !ok {
		t.Fatal("Login() = false, want true")
	}
	if !m.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false after login")
	}

	u, ok := m.CurrentUser()
	if !ok {
		t.Fatal("CurrentUser() absent after login")
	}
	if u.Role != user.RoleArtist {
		t.Errorf("Role = %q, want %q (ROLE_ prefix stripped)", u.Role, user.RoleArtist)
	}
	if u.FirstName != "Anaya" {
		t.Errorf("FirstName = %q, want %q (claims identity kept through merge)", u.FirstName, "Anaya")
	}

	creds := st.storedCredentials()
	if creds == nil {
		t.Fatal("credentials were not persisted")
	}
	if creds.Token != token {
		t.Error("persisted token differs from issued token")
	}
	if got := log.all(); len(got) == 0 || got[0] != events.EventLogin {
		t.Errorf("events = %v, want login first", got)
	}
}

// Requirement: a token with no derivable expiry is rejected rather than held
// with an unknowable lifetime.
func TestManager_Login_NoExpiryFailsClosed(t *testing.T) {
	token := signToken(t, jwt.Claims{
		UserID:           42,
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "anaya"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})

	m, st, _ := newTestManager(t, mux)

	if m.Login(context.Background(), "anaya", "secret") {
		t.Fatal("Login() = true for token with no expiry, want false")
	}
	if m.IsAuthenticated() {
		t.Error("IsAuthenticated() = true, want false")
	}
	if st.storedCredentials() != nil {
		t.Error("credentials were persisted for a rejected token")
	}
}

// Requirement: restoring an expired persisted session clears it instead of
// resurrecting it.
func TestManager_Restore_ExpiredSessionCleared(t *testing.T) {
	m, st, _ := newTestManager(t, http.NewServeMux())
	st.SaveCredentials(&store.Credentials{
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
		Username:  "anaya",
	})
	st.SaveUser(&user.User{ID: 42, Username: "anaya"})

	m.Restore(context.Background())

	if m.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = true after restoring expired session")
	}
	if st.storedCredentials() != nil {
		t.Error("expired credentials were not cleared")
	}
	if st.storedUser() != nil {
		t.Error("user snapshot survived credential clearing")
	}
}

// Requirement: a live persisted session restores instantly from the snapshot
// even when the profile endpoint is down.
func TestManager_Restore_SnapshotWhenProfileUnreachable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	m, st, _ := newTestManager(t, mux)
	st.SaveCredentials(&store.Credentials{
		Token:     "live",
		ExpiresAt: time.Now().Add(time.Hour),
		Role:      "ARTIST",
		UserID:    42,
		Username:  "anaya",
	})
	st.SaveUser(&user.User{ID: 42, Username: "anaya", Role: user.RoleArtist})

	m.Restore(context.Background())

	if !m.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = false, want true")
	}
	u, ok := m.CurrentUser()
	if !ok || u.Username != "anaya" {
		t.Errorf("CurrentUser() = %v, want snapshot identity", u)
	}
}

// Requirement: logout clears the token, the user, and the persisted record in
// one step, and announces it on the bus.
func TestManager_Logout(t *testing.T) {
	m, st, log := newTestManager(t, http.NewServeMux())
	st.SaveCredentials(&store.Credentials{Token: "live", ExpiresAt: time.Now().Add(time.Hour)})
	m.Restore(context.Background())

	m.Logout()

	if m.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after logout")
	}
	if _, ok := m.CurrentUser(); ok {
		t.Error("CurrentUser() present after logout")
	}
	if _, ok := m.Token(); ok {
		t.Error("Token() present after logout")
	}
	if st.storedCredentials() != nil {
		t.Error("persisted credentials survived logout")
	}

	got := log.all()
	if len(got) == 0 || got[len(got)-1] != events.EventLogout {
		t.Errorf("events = %v, want logout last", got)
	}
}

// Requirement: the refresh advisory fires only inside the five minute window
// before expiry.
func TestManager_ShouldRefreshToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		token     string
		expiresAt time.Time
		want      bool
	}{
		{name: "no token", token: "", expiresAt: now.Add(time.Minute), want: false},
		{name: "well before the window", token: "tok", expiresAt: now.Add(time.Hour), want: false},
		{name: "exactly at the window", token: "tok", expiresAt: now.Add(5 * time.Minute), want: false},
		{name: "inside the window", token: "tok", expiresAt: now.Add(4 * time.Minute), want: true},
		{name: "already expired", token: "tok", expiresAt: now.Add(-time.Minute), want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := NewManager(nil, NewFakeStateStore(), events.NewBus(), nil)
			m.now = func() time.Time { return now }
			m.token = test.token
			m.expiresAt = test.expiresAt

			if got := m.ShouldRefreshToken(); got != test.want {
				t.Errorf("ShouldRefreshToken() = %v, want %v", got, test.want)
			}
		})
	}
}

// Requirement: a rejected refresh tears the session down.
func TestManager_RefreshToken_FailureLogsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	m, st, log := newTestManager(t, mux)
	st.SaveCredentials(&store.Credentials{Token: "stale", ExpiresAt: time.Now().Add(time.Minute)})
	m.Restore(context.Background())

	if m.RefreshToken(context.Background()) {
		t.Fatal("RefreshToken() = true, want false")
	}
	if m.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after failed refresh")
	}

	got := log.all()
	if len(got) == 0 || got[len(got)-1] != events.EventLogout {
		t.Errorf("events = %v, want logout last", got)
	}
}

// Requirement: a successful refresh swaps in the new token, extends the
// expiry, persists, and emits a refresh event.
func TestManager_RefreshToken_Success(t *testing.T) {
	newExp := time.Now().Add(time.Hour)
	newToken := signToken(t, testClaims("anaya", "ARTIST", newExp))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["token"] != "stale" {
			t.Errorf("refresh submitted token %q, want %q", req["token"], "stale")
		}
		json.NewEncoder(w).Encode(map[string]string{"token": newToken})
	})

	m, st, log := newTestManager(t, mux)
	st.SaveCredentials(&store.Credentials{
		Token:     "stale",
		ExpiresAt: time.Now().Add(time.Minute),
		Username:  "anaya",
	})
	m.Restore(context.Background())

	if !m.RefreshToken(context.Background()) {
		t.Fatal("RefreshToken() = false, want true")
	}

	tok, ok := m.Token()
	if !ok || tok != newToken {
		t.Error("Token() did not swap to the refreshed token")
	}
	creds := st.storedCredentials()
	if creds == nil || creds.Token != newToken {
		t.Error("refreshed credentials were not persisted")
	}

	got := log.all()
	if len(got) == 0 || got[len(got)-1] != events.EventRefresh {
		t.Errorf("events = %v, want refresh last", got)
	}
}

// Requirement: a token rejected by the server while still well before expiry
// (revocation, key rotation) gets a real exchange attempt, and when that
// exchange is also rejected the session is torn down, not left standing
// until natural expiry.
func TestManager_RefreshToken_RevokedFreshToken(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	m, st, log := newTestManager(t, mux)
	st.SaveCredentials(&store.Credentials{Token: "revoked", ExpiresAt: time.Now().Add(time.Hour)})
	m.Restore(context.Background())

	if m.RefreshToken(context.Background()) {
		t.Fatal("RefreshToken() = true for a revoked token, want false")
	}
	if calls != 1 {
		t.Errorf("refresh endpoint called %d times, want 1", calls)
	}
	if m.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after the server confirmed the session dead")
	}
	got := log.all()
	if len(got) == 0 || got[len(got)-1] != events.EventLogout {
		t.Errorf("events = %v, want logout last", got)
	}
}

// Requirement: a refresh that was waiting while another one completed the
// exchange adopts the replacement token instead of spending a second call.
func TestManager_RefreshToken_DeduplicatesConcurrent(t *testing.T) {
	newToken := signToken(t, testClaims("anaya", "ARTIST", time.Now().Add(time.Hour)))

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-release
		}
		json.NewEncoder(w).Encode(map[string]string{"token": newToken})
	})

	m, st, _ := newTestManager(t, mux)
	st.SaveCredentials(&store.Credentials{Token: "stale", ExpiresAt: time.Now().Add(time.Minute)})
	m.Restore(context.Background())

	firstDone := make(chan bool)
	go func() { firstDone <- m.RefreshToken(context.Background()) }()
	<-entered // first exchange is now in flight, holding the refresh lock

	secondDone := make(chan bool)
	go func() { secondDone <- m.RefreshToken(context.Background()) }()
	// Give the second caller time to reach the refresh lock queue.
	time.Sleep(50 * time.Millisecond)

	close(release)
	if !<-firstDone {
		t.Fatal("first RefreshToken() = false, want true")
	}
	if !<-secondDone {
		t.Fatal("second RefreshToken() = false, want true")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("refresh endpoint called %d times, want 1", got)
	}
}

// Requirement: Role falls back to CUSTOMER for unauthenticated callers.
func TestManager_Role_FallbackWhenUnauthenticated(t *testing.T) {
	m, _, _ := newTestManager(t, http.NewServeMux())

	if got := m.Role(); got != user.RoleCustomer {
		t.Errorf("Role() = %q, want %q", got, user.RoleCustomer)
	}
}

// Requirement: role gates admit only the allowed normalized roles; an empty
// gate admits any authenticated user.
func TestRoleGate_Allows(t *testing.T) {
	tests := []struct {
		name string
		gate RoleGate
		role user.Role
		want bool
	}{
		{name: "admin passes admin gate", gate: AdminOnly(), role: user.RoleAdmin, want: true},
		{name: "customer blocked by admin gate", gate: AdminOnly(), role: user.RoleCustomer, want: false},
		{name: "prefixed artist passes artist gate", gate: ArtistOnly(), role: user.Role("ROLE_ARTIST"), want: true},
		{name: "unknown role normalizes to customer and is blocked", gate: ArtistOnly(), role: user.Role("WEIRD"), want: false},
		{name: "empty gate admits anyone", gate: RoleGate{}, role: user.Role("WEIRD"), want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.gate.Allows(test.role); got != test.want {
				t.Errorf("Allows(%q) = %v, want %v", test.role, got, test.want)
			}
		})
	}
}

// Requirement: wire timestamps arrive both with and without a zone.
func TestParseWireTime(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "RFC 3339", in: "2026-03-01T12:00:00Z", wantErr: false},
		{name: "zone-less LocalDateTime", in: "2026-03-01T12:00:00", wantErr: false},
		{name: "garbage", in: "yesterday", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseWireTime(test.in)
			if (err != nil) != test.wantErr {
				t.Errorf("parseWireTime(%q) error = %v, wantErr %v", test.in, err, test.wantErr)
			}
		})
	}
}
