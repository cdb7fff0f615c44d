// internal/store/sqlite.go
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/user"
)

// SQLiteStore keeps client state in a single-file database using a small
// key/value table. Useful where several storefront processes on one machine
// must share state with real write atomicity.
type SQLiteStore struct {
	db *sql.DB
}

const (
	keyCredentials = "credentials"
	keyUser        = "user"
	keyCart        = "cart"
)

// NewSQLiteStore opens (creating if needed) the state database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: empty path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// A single writer at a time keeps "database is locked" errors away for
	// this access pattern.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS client_state (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: migrate: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO client_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite store: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM client_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SaveCredentials(creds *Credentials) error {
	if creds == nil || creds.Token == "" {
		return fmt.Errorf("sqlite store: refusing to save empty credentials")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal credentials: %w", err)
	}
	return s.put(keyCredentials, data)
}

func (s *SQLiteStore) LoadCredentials() (*Credentials, error) {
	data, err := s.get(keyCredentials)
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil || creds.Token == "" {
		return nil, ErrNotFound
	}
	return &creds, nil
}

// ClearCredentials removes the credential record and the user snapshot in one
// transaction.
func (s *SQLiteStore) ClearCredentials() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite store: begin clear: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM client_state WHERE key IN (?, ?)`, keyCredentials, keyUser); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite store: clear credentials: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveUser(u *user.User) error {
	if u == nil {
		return fmt.Errorf("sqlite store: nil user")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal user: %w", err)
	}
	return s.put(keyUser, data)
}

func (s *SQLiteStore) LoadUser() (*user.User, error) {
	data, err := s.get(keyUser)
	if err != nil {
		return nil, err
	}
	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *SQLiteStore) SaveCart(lines []cart.Line) error {
	data, err := cart.EncodeLines(lines)
	if err != nil {
		return fmt.Errorf("sqlite store: marshal cart: %w", err)
	}
	return s.put(keyCart, data)
}

func (s *SQLiteStore) LoadCart() ([]cart.Line, error) {
	data, err := s.get(keyCart)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cart.DecodeLines(data), nil
}

func (s *SQLiteStore) ClearCart() error {
	if _, err := s.db.Exec(`DELETE FROM client_state WHERE key = ?`, keyCart); err != nil {
		return fmt.Errorf("sqlite store: clear cart: %w", err)
	}
	return nil
}
