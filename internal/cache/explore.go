package cache

import (
	"context"
	"sync"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/logging"
	"github.com/emircancapkan/karma-case/internal/models"
)

// ExploreAPI captures the explore endpoint the cache drives.
type ExploreAPI interface {
	Nearby(ctx context.Context, req api.ExploreRequest) ([]byte, error)
}

// ExploreCache holds nearby images from the discovery feed, including
// other users' records. Session-scoped like the other caches.
type ExploreCache struct {
	api ExploreAPI

	mu      sync.RWMutex
	images  []models.GeneratedImage
	loading bool
	err     string
}

// NewExploreCache wires the cache to its endpoint group.
func NewExploreCache(exploreAPI ExploreAPI) *ExploreCache {
	return &ExploreCache{api: exploreAPI}
}

// Images returns a copy of the current feed.
func (c *ExploreCache) Images() []models.GeneratedImage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.GeneratedImage, len(c.images))
	copy(out, c.images)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (c *ExploreCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last fetch error message, or "".
func (c *ExploreCache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Clear empties the feed. Invoked on every identity transition.
func (c *ExploreCache) Clear() {
	c.mu.Lock()
	c.images = nil
	c.err = ""
	c.mu.Unlock()
}

// Fetch retrieves images near the given point through the shared
// normalizer. Failures keep the previous feed and set Err.
func (c *ExploreCache) Fetch(ctx context.Context, req api.ExploreRequest) ([]models.GeneratedImage, error) {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	body, err := c.api.Nearby(ctx, req)
	if err != nil {
		c.mu.Lock()
		c.err = api.UserMessage(err)
		c.mu.Unlock()
		return nil, err
	}

	images, err := NormalizeImageList(body)
	if err != nil {
		logging.FromContext(ctx).Error("normalize explore feed", "error", err)
		c.mu.Lock()
		c.err = api.MsgGeneric
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.images = images
	c.err = ""
	c.mu.Unlock()
	return images, nil
}
