package api

import (
	"context"
	"net/http"
)

// FriendGroup wraps the /friend resource.
type FriendGroup struct {
	c *Client
}

// Friend returns the friend endpoint group.
func (c *Client) Friend() *FriendGroup {
	return &FriendGroup{c: c}
}

// List fetches the combined flat list of friend and request edges. Raw
// body returned because two edge shapes exist in the wild.
func (g *FriendGroup) List(ctx context.Context) ([]byte, error) {
	return g.c.Do(ctx, http.MethodGet, "/friend", nil, nil)
}

// Request sends a friend request; the caller becomes the edge's user1.
func (g *FriendGroup) Request(ctx context.Context, targetUserID string) error {
	_, err := g.c.Do(ctx, http.MethodPost, "/friend/request", map[string]string{"targetUserId": targetUserID}, nil)
	return err
}

// Accept converts a received request edge into a friend edge.
func (g *FriendGroup) Accept(ctx context.Context, friendID string) error {
	_, err := g.c.Do(ctx, http.MethodPost, "/friend/accept", map[string]string{"friendId": friendID}, nil)
	return err
}

// Delete removes an edge: reject a received request, cancel a sent one,
// or unfriend. The id travels in the DELETE body per the backend contract.
func (g *FriendGroup) Delete(ctx context.Context, friendID string) error {
	_, err := g.c.Do(ctx, http.MethodDelete, "/friend/delete", map[string]string{"friendId": friendID}, nil)
	return err
}
