// internal/store/file.go
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/user"
)

// fileState is the single on-disk document. Sections are raw JSON so a
// corrupted cart cannot take the credentials down with it, and vice versa.
type fileState struct {
	Credentials *Credentials    `json:"credentials,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
	Cart        json.RawMessage `json:"cart,omitempty"`
}

// FileStore keeps all client state in one JSON file, written atomically via
// a temp file and rename. With a non-empty secret the document is sealed
// with AES-256-GCM under a scrypt-derived key, so a stolen state file does
// not leak a live bearer token.
type FileStore struct {
	mu   sync.Mutex
	path string
	box  *sealedBox // nil when the state is stored in the clear
}

// NewFileStore opens (or prepares to create) the state file at path. secret
// may be empty for plaintext storage.
func NewFileStore(path, secret string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file store: create state dir: %w", err)
	}

	fs := &FileStore{path: path}
	if secret != "" {
		box, err := newSealedBox(secret)
		if err != nil {
			return nil, err
		}
		fs.box = box
	}
	return fs, nil
}

func (f *FileStore) SaveCredentials(creds *Credentials) error {
	if creds == nil || creds.Token == "" {
		return fmt.Errorf("file store: refusing to save empty credentials")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mutate(func(st *fileState) {
		st.Credentials = creds
	})
}

func (f *FileStore) LoadCredentials() (*Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.read()
	if st.Credentials == nil || st.Credentials.Token == "" {
		return nil, ErrNotFound
	}
	creds := *st.Credentials
	return &creds, nil
}

func (f *FileStore) ClearCredentials() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mutate(func(st *fileState) {
		st.Credentials = nil
		st.User = nil
	})
}

func (f *FileStore) SaveUser(u *user.User) error {
	if u == nil {
		return fmt.Errorf("file store: nil user")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("file store: marshal user: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mutate(func(st *fileState) {
		st.User = data
	})
}

func (f *FileStore) LoadUser() (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.read()
	if len(st.User) == 0 {
		return nil, ErrNotFound
	}
	var u user.User
	if err := json.Unmarshal(st.User, &u); err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (f *FileStore) SaveCart(lines []cart.Line) error {
	data, err := cart.EncodeLines(lines)
	if err != nil {
		return fmt.Errorf("file store: marshal cart: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mutate(func(st *fileState) {
		st.Cart = data
	})
}

func (f *FileStore) LoadCart() ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.read()
	return cart.DecodeLines(st.Cart), nil
}

func (f *FileStore) ClearCart() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mutate(func(st *fileState) {
		st.Cart = nil
	})
}

// read loads the current document; any unreadable or undecryptable file is
// treated as empty state rather than an error.
func (f *FileStore) read() fileState {
	var st fileState

	data, err := os.ReadFile(f.path)
	if err != nil {
		return st
	}

	if f.box != nil {
		data, err = f.box.open(data)
		if err != nil {
			return fileState{}
		}
	}

	if err := json.Unmarshal(data, &st); err != nil {
		return fileState{}
	}
	return st
}

// mutate applies fn to the current document and writes it back atomically.
// Caller holds f.mu.
func (f *FileStore) mutate(fn func(*fileState)) error {
	st := f.read()
	fn(&st)

	data, err := json.Marshal(&st)
	if err != nil {
		return fmt.Errorf("file store: marshal state: %w", err)
	}

	if f.box != nil {
		data, err = f.box.seal(data)
		if err != nil {
			return fmt.Errorf("file store: seal state: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return fmt.Errorf("file store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file store: write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file store: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		os.Remove(tmpName)
		return fmt.Errorf("file store: chmod state: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file store: replace state: %w", err)
	}
	return nil
}
