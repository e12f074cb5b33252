package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

var scryptSalt = []byte("karma-store-v1")

// SealedBackend encrypts values at rest so a persisted bearer token is
// not readable from the raw store file.
type SealedBackend struct {
	inner Backend
	key   []byte
}

// NewSealedBackend derives an encryption key from secret and wraps inner.
func NewSealedBackend(inner Backend, secret string) (*SealedBackend, error) {
	if secret == "" {
		return nil, errors.New("store: sealing secret must not be empty")
	}
	key, err := scrypt.Key([]byte(secret), scryptSalt, 1<<15, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return &SealedBackend{inner: inner, key: key}, nil
}

// Get retrieves and opens the sealed value stored under key.
func (s *SealedBackend) Get(ctx context.Context, key string) (string, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed value for %s: %w", key, err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("sealed value for %s is truncated", key)
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("open sealed value for %s: %w", key, err)
	}
	return string(plaintext), nil
}

// Set seals value and stores it under key.
func (s *SealedBackend) Set(ctx context.Context, key, value string) error {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Remove deletes the sealed value stored under key.
func (s *SealedBackend) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}
