// internal/store/seal.go
package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// sealedBox encrypts the state document with AES-256-GCM. The key is derived
// from the configured secret with scrypt; the random salt travels with each
// sealed payload so rotating the file never requires external key state.
type sealedBox struct {
	secret string
}

const (
	sealSaltSize = 16
	sealKeySize  = 32
)

func newSealedBox(secret string) (*sealedBox, error) {
	if secret == "" {
		return nil, fmt.Errorf("sealed box: empty secret")
	}
	return &sealedBox{secret: secret}, nil
}

func (b *sealedBox) deriveKey(salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(b.secret), salt, 1<<15, 8, 1, sealKeySize)
	if err != nil {
		return nil, fmt.Errorf("sealed box: derive key: %w", err)
	}
	return key, nil
}

// seal produces salt || nonce || ciphertext.
func (b *sealedBox) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, sealSaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("sealed box: salt: %w", err)
	}

	key, err := b.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealed box: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sealed box: gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("sealed box: nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

func (b *sealedBox) open(data []byte) ([]byte, error) {
	if len(data) < sealSaltSize {
		return nil, fmt.Errorf("sealed box: payload too short")
	}
	salt, rest := data[:sealSaltSize], data[sealSaltSize:]

	key, err := b.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealed box: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("sealed box: gcm: %w", err)
	}

	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed box: payload too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("sealed box: open: %w", err)
	}
	return plaintext, nil
}
