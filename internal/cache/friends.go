package cache

import (
	"context"
	"sync"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/logging"
	"github.com/emircancapkan/karma-case/internal/models"
)

// FriendAPI captures the friend endpoints the cache drives.
type FriendAPI interface {
	List(ctx context.Context) ([]byte, error)
	Request(ctx context.Context, targetUserID string) error
	Accept(ctx context.Context, friendID string) error
	Delete(ctx context.Context, friendID string) error
}

// IdentitySource supplies the current user id for partitioning edges by
// direction. The session controller implements it.
type IdentitySource interface {
	CurrentUserID() string
}

// FriendCache holds the user's friend graph partitioned into friends,
// received requests, and sent requests. Cleared on identity transitions.
type FriendCache struct {
	api      FriendAPI
	identity IdentitySource

	mu      sync.RWMutex
	friends []models.FriendEdge
	pending []models.FriendEdge
	sent    []models.FriendEdge
	loading bool
	err     string
}

// NewFriendCache wires the cache to its endpoint group and identity source.
func NewFriendCache(friendAPI FriendAPI, identity IdentitySource) *FriendCache {
	return &FriendCache{api: friendAPI, identity: identity}
}

// Friends returns a copy of the accepted-friend edges.
func (c *FriendCache) Friends() []models.FriendEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyEdges(c.friends)
}

// PendingRequests returns a copy of the received request edges.
func (c *FriendCache) PendingRequests() []models.FriendEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyEdges(c.pending)
}

// SentRequests returns a copy of the request edges this user initiated.
func (c *FriendCache) SentRequests() []models.FriendEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyEdges(c.sent)
}

// IsLoading reports whether a fetch is in flight.
func (c *FriendCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last fetch error message, or "".
func (c *FriendCache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Clear empties all partitions. Invoked on every identity transition.
func (c *FriendCache) Clear() {
	c.mu.Lock()
	c.friends, c.pending, c.sent = nil, nil, nil
	c.err = ""
	c.mu.Unlock()
}

// Fetch retrieves the combined edge list and partitions it by direction
// relative to the current user. Without a user id the partition degrades
// to friends versus all-requests-as-received. An unauthorized response
// is treated as an empty graph, not an error.
func (c *FriendCache) Fetch(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	body, err := c.api.List(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			c.Clear()
			return nil
		}
		c.setErr(api.UserMessage(err))
		return err
	}

	edges, err := NormalizeFriendList(body)
	if err != nil {
		logging.FromContext(ctx).Error("normalize friend list", "error", err)
		c.setErr(api.MsgGeneric)
		return err
	}

	me := ""
	if c.identity != nil {
		me = c.identity.CurrentUserID()
	}

	var friends, pending, sent []models.FriendEdge
	for _, edge := range edges {
		switch {
		case edge.Type == models.EdgeFriend:
			friends = append(friends, edge)
		case edge.Type == models.EdgeRequest && me != "" && edge.SentBy(me):
			sent = append(sent, edge)
		case edge.Type == models.EdgeRequest:
			pending = append(pending, edge)
		}
	}

	c.mu.Lock()
	c.friends, c.pending, c.sent = friends, pending, sent
	c.err = ""
	c.mu.Unlock()
	return nil
}

// SendRequest creates a pending edge with the current user as requester.
// The new edge's id is backend-assigned, so there is no optimistic delta;
// a refetch picks it up.
func (c *FriendCache) SendRequest(ctx context.Context, targetUserID string) error {
	if err := c.api.Request(ctx, targetUserID); err != nil {
		return err
	}
	if err := c.Fetch(ctx); err != nil {
		logging.FromContext(ctx).Warn("refetch after friend request failed", "error", err)
	}
	return nil
}

// Accept converts a received request into a friend edge: the item moves
// between partitions immediately, rolls back if the backend refuses, and
// a refetch reconciles on success.
func (c *FriendCache) Accept(ctx context.Context, friendID string) error {
	snapshot := c.snapshot()
	return applyThenConfirm(ctx,
		func() {
			c.mu.Lock()
			var accepted *models.FriendEdge
			kept := c.pending[:0]
			for _, edge := range c.pending {
				if edge.ID == friendID && accepted == nil {
					moved := edge
					moved.Type = models.EdgeFriend
					accepted = &moved
					continue
				}
				kept = append(kept, edge)
			}
			c.pending = kept
			if accepted != nil {
				c.friends = append(c.friends, *accepted)
			}
			c.mu.Unlock()
		},
		func() { c.restore(snapshot) },
		func(ctx context.Context) error { return c.api.Accept(ctx, friendID) },
		c.Fetch,
	)
}

// Reject removes a received request without creating a friend edge.
func (c *FriendCache) Reject(ctx context.Context, friendID string) error {
	snapshot := c.snapshot()
	return applyThenConfirm(ctx,
		func() { c.dropPending(friendID) },
		func() { c.restore(snapshot) },
		func(ctx context.Context) error { return c.api.Delete(ctx, friendID) },
		c.Fetch,
	)
}

// CancelRequest withdraws a request this user sent.
func (c *FriendCache) CancelRequest(ctx context.Context, friendID string) error {
	snapshot := c.snapshot()
	return applyThenConfirm(ctx,
		func() {
			c.mu.Lock()
			c.sent = dropEdge(c.sent, friendID)
			c.mu.Unlock()
		},
		func() { c.restore(snapshot) },
		func(ctx context.Context) error { return c.api.Delete(ctx, friendID) },
		c.Fetch,
	)
}

// RemoveFriend deletes an accepted friend edge.
func (c *FriendCache) RemoveFriend(ctx context.Context, friendID string) error {
	snapshot := c.snapshot()
	return applyThenConfirm(ctx,
		func() {
			c.mu.Lock()
			c.friends = dropEdge(c.friends, friendID)
			c.mu.Unlock()
		},
		func() { c.restore(snapshot) },
		func(ctx context.Context) error { return c.api.Delete(ctx, friendID) },
		c.Fetch,
	)
}

type partitions struct {
	friends []models.FriendEdge
	pending []models.FriendEdge
	sent    []models.FriendEdge
}

func (c *FriendCache) snapshot() partitions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return partitions{
		friends: copyEdges(c.friends),
		pending: copyEdges(c.pending),
		sent:    copyEdges(c.sent),
	}
}

func (c *FriendCache) restore(p partitions) {
	c.mu.Lock()
	c.friends, c.pending, c.sent = p.friends, p.pending, p.sent
	c.mu.Unlock()
}

func (c *FriendCache) dropPending(friendID string) {
	c.mu.Lock()
	c.pending = dropEdge(c.pending, friendID)
	c.mu.Unlock()
}

func (c *FriendCache) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

func (c *FriendCache) setErr(message string) {
	c.mu.Lock()
	c.err = message
	c.mu.Unlock()
}

func copyEdges(edges []models.FriendEdge) []models.FriendEdge {
	out := make([]models.FriendEdge, len(edges))
	copy(out, edges)
	return out
}

func dropEdge(edges []models.FriendEdge, id string) []models.FriendEdge {
	kept := edges[:0]
	for _, edge := range edges {
		if edge.ID != id {
			kept = append(kept, edge)
		}
	}
	return kept
}
