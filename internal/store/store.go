package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/emircancapkan/karma-case/internal/logging"
	"github.com/emircancapkan/karma-case/internal/models"
)

// Well-known keys for the two domain entries plus the onboarding flag.
// Any other key goes through the generic value helpers.
const (
	KeyAuthToken          = "authToken"
	KeyUserData           = "userData"
	KeyOnboardingComplete = "onboardingComplete"
)

// ErrNotFound indicates the requested key has no stored value.
var ErrNotFound = errors.New("store: key not found")

// Backend is raw durable key/value storage. Implementations may fail;
// the Store wrapper decides what failures mean.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store is the best-effort persistent session store. Every operation
// swallows its own I/O error and logs it: a failed read behaves like an
// absent key, a failed write is a no-op from the caller's perspective.
type Store struct {
	backend Backend
}

// New wraps the provided backend in the best-effort store.
func New(backend Backend) *Store {
	if backend == nil {
		panic("store: backend must not be nil")
	}
	return &Store{backend: backend}
}

// Get returns the raw value for key, or false when absent or unreadable.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.FromContext(ctx).Error("store read failed", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// Set stores the raw value for key, logging and discarding any failure.
func (s *Store) Set(ctx context.Context, key, value string) {
	if err := s.backend.Set(ctx, key, value); err != nil {
		logging.FromContext(ctx).Error("store write failed", "key", key, "error", err)
	}
}

// Remove deletes the value for key, logging and discarding any failure.
func (s *Store) Remove(ctx context.Context, key string) {
	if err := s.backend.Remove(ctx, key); err != nil {
		logging.FromContext(ctx).Error("store remove failed", "key", key, "error", err)
	}
}

// Token returns the persisted bearer token, if any.
func (s *Store) Token(ctx context.Context) (string, bool) {
	token, ok := s.Get(ctx, KeyAuthToken)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// SetToken persists the bearer token.
func (s *Store) SetToken(ctx context.Context, token string) {
	s.Set(ctx, KeyAuthToken, token)
}

// User returns the persisted profile, if present and decodable.
func (s *Store) User(ctx context.Context) (models.User, bool) {
	raw, ok := s.Get(ctx, KeyUserData)
	if !ok {
		return models.User{}, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logging.FromContext(ctx).Error("store user decode failed", "error", err)
		return models.User{}, false
	}
	return user, true
}

// SetUser serializes and persists the profile.
func (s *Store) SetUser(ctx context.Context, user models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		logging.FromContext(ctx).Error("store user encode failed", "error", err)
		return
	}
	s.Set(ctx, KeyUserData, string(raw))
}

// GetValue decodes the value stored under an arbitrary key into v.
// Supports future flags without schema migration.
func (s *Store) GetValue(ctx context.Context, key string, v any) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logging.FromContext(ctx).Error("store value decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// SetValue serializes v under an arbitrary key.
func (s *Store) SetValue(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(ctx).Error("store value encode failed", "key", key, "error", err)
		return
	}
	s.Set(ctx, key, string(raw))
}
