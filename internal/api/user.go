package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/emircancapkan/karma-case/internal/models"
)

// UserGroup wraps the /user resource.
type UserGroup struct {
	c *Client
}

// User returns the user endpoint group.
func (c *Client) User() *UserGroup {
	return &UserGroup{c: c}
}

// UpdateRequest is the partial profile payload for POST /user/update.
// Empty fields are omitted from the wire and preserved server-side.
type UpdateRequest struct {
	Username string `json:"username,omitempty"`
	Mail     string `json:"mail,omitempty"`
	Password string `json:"password,omitempty"`
}

// Update submits accepted profile changes and returns the updated record.
func (g *UserGroup) Update(ctx context.Context, req UpdateRequest) (models.User, error) {
	body, err := g.c.Do(ctx, http.MethodPost, "/user/update", req, nil)
	if err != nil {
		return models.User{}, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return models.User{}, err
	}

	var raw rawUser
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return models.User{}, clientError(fmt.Errorf("decode updated user: %w", err))
		}
	}
	return raw.normalize(), nil
}

// Delete removes the account remotely.
func (g *UserGroup) Delete(ctx context.Context) error {
	_, err := g.c.Do(ctx, http.MethodDelete, "/user/delete", nil, nil)
	return err
}

// Purchase upgrades the account to premium membership.
func (g *UserGroup) Purchase(ctx context.Context) error {
	body, err := g.c.Do(ctx, http.MethodPost, "/user/purchase", nil, nil)
	if err != nil {
		return err
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return err
	}
	if !env.Success {
		return apiError(http.StatusPaymentRequired, env.Message)
	}
	return nil
}
