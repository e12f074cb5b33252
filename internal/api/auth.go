package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/emircancapkan/karma-case/internal/models"
)

// AuthGroup wraps the /auth resource.
type AuthGroup struct {
	c *Client
}

// Auth returns the auth endpoint group.
func (c *Client) Auth() *AuthGroup {
	return &AuthGroup{c: c}
}

// LoginRequest carries the credentials for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest carries the payload for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Mail     string `json:"mail"`
	Code     string `json:"code,omitempty"`
}

// AuthResult is the token/user pair issued on successful login or signup.
type AuthResult struct {
	Token string
	User  models.User
}

// Login exchanges credentials for a session.
func (g *AuthGroup) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	body, err := g.c.Do(ctx, http.MethodPost, "/auth/login", req, nil)
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuthResult(body)
}

// Register creates an account and returns its first session.
func (g *AuthGroup) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	body, err := g.c.Do(ctx, http.MethodPost, "/auth/register", req, nil)
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuthResult(body)
}

// CheckUsername reports whether username is available.
func (g *AuthGroup) CheckUsername(ctx context.Context, username string) (bool, error) {
	body, err := g.c.Do(ctx, http.MethodPost, "/auth/check-username", map[string]string{"username": username}, nil)
	if err != nil {
		return false, err
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return false, err
	}
	return env.Success, nil
}

// CheckMail reports whether mail is available. The backend also sends a
// verification code to the address as a side effect.
func (g *AuthGroup) CheckMail(ctx context.Context, mail string) (bool, error) {
	body, err := g.c.Do(ctx, http.MethodPost, "/auth/check-mail", map[string]string{"mail": mail}, nil)
	if err != nil {
		return false, err
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return false, err
	}
	return env.Success, nil
}

// Logout notifies the backend the session is ending. Best effort only;
// local teardown never depends on it.
func (g *AuthGroup) Logout(ctx context.Context) error {
	_, err := g.c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	return err
}

func decodeAuthResult(body []byte) (AuthResult, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return AuthResult{}, err
	}
	if !env.Success || len(env.Data) == 0 {
		return AuthResult{}, apiError(http.StatusUnauthorized, env.Message)
	}

	var payload struct {
		Token string  `json:"token"`
		User  rawUser `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return AuthResult{}, clientError(fmt.Errorf("decode auth payload: %w", err))
	}
	if payload.Token == "" {
		return AuthResult{}, clientError(errors.New("auth payload missing token"))
	}

	return AuthResult{Token: payload.Token, User: payload.User.normalize()}, nil
}
