package session

import (
	"sync"

	"kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/user"
	"kalakriti-client/internal/store"
)

// FakeStateStore is a test-only in-memory store.StateStore with error fields
// for behavior injection.
type FakeStateStore struct {
	mu    sync.Mutex
	creds *store.Credentials
	user  *user.User
	lines []cart.Line

	saveCredsErr error
	loadCredsErr error
	clearErr     error
}

func NewFakeStateStore() *FakeStateStore {
	return &FakeStateStore{}
}

func (f *FakeStateStore) SaveCredentials(creds *store.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveCredsErr != nil {
		return f.saveCredsErr
	}
	c := *creds
	f.creds = &c
	return nil
}

func (f *FakeStateStore) LoadCredentials() (*store.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadCredsErr != nil {
		return nil, f.loadCredsErr
	}
	if f.creds == nil {
		return nil, store.ErrNotFound
	}
	c := *f.creds
	return &c, nil
}

func (f *FakeStateStore) ClearCredentials() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.creds = nil
	f.user = nil
	return nil
}

func (f *FakeStateStore) SaveUser(u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *u
	f.user = &c
	return nil
}

func (f *FakeStateStore) LoadUser() (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil, store.ErrNotFound
	}
	c := *f.user
	return &c, nil
}

func (f *FakeStateStore) SaveCart(lines []cart.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append([]cart.Line(nil), lines...)
	return nil
}

func (f *FakeStateStore) LoadCart() ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cart.Line(nil), f.lines...), nil
}

func (f *FakeStateStore) ClearCart() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	return nil
}

func (f *FakeStateStore) storedCredentials() *store.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

func (f *FakeStateStore) storedUser() *user.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}
