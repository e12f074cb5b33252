package cache

import (
	"context"
	"sync"

	"github.com/emircancapkan/karma-case/internal/api"
	"github.com/emircancapkan/karma-case/internal/logging"
	"github.com/emircancapkan/karma-case/internal/models"
)

// ImageAPI captures the image endpoints the cache drives.
type ImageAPI interface {
	Upload(ctx context.Context, req api.UploadRequest) ([]byte, error)
	List(ctx context.Context, filters api.ImageFilters) ([]byte, error)
}

// CreditSink receives the optimistic one-credit cost of a confirmed
// generation. The session controller implements it.
type CreditSink interface {
	DecrementCredits(ctx context.Context)
}

// ImageCache holds the user's generated images, normalized and ordered
// newest first. Cleared on every identity transition.
type ImageCache struct {
	api     ImageAPI
	credits CreditSink

	mu      sync.RWMutex
	images  []models.GeneratedImage
	loading bool
	err     string
}

// NewImageCache wires the cache to its endpoint group and credit sink.
func NewImageCache(imageAPI ImageAPI, credits CreditSink) *ImageCache {
	return &ImageCache{api: imageAPI, credits: credits}
}

// Images returns a copy of the current collection.
func (c *ImageCache) Images() []models.GeneratedImage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.GeneratedImage, len(c.images))
	copy(out, c.images)
	return out
}

// IsLoading reports whether a fetch is in flight.
func (c *ImageCache) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last fetch error message, or "".
func (c *ImageCache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Set replaces the collection and clears the error flag.
func (c *ImageCache) Set(images []models.GeneratedImage) {
	c.mu.Lock()
	c.images = images
	c.err = ""
	c.mu.Unlock()
}

// Add prepends a newly created image (optimistic ordering: newest first).
func (c *ImageCache) Add(image models.GeneratedImage) {
	c.mu.Lock()
	c.images = append([]models.GeneratedImage{image}, c.images...)
	c.mu.Unlock()
}

// Remove drops the image with the given id.
func (c *ImageCache) Remove(imageID string) {
	c.mu.Lock()
	kept := c.images[:0]
	for _, img := range c.images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	c.images = kept
	c.mu.Unlock()
}

// Clear empties the collection and error flag. Invoked on every identity
// transition so no record outlives the session that produced it.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = nil
	c.err = ""
	c.mu.Unlock()
}

// Fetch retrieves and normalizes the image list. An unauthorized
// response means a new account with no images yet: the collection is
// emptied and no error is recorded. Any other failure keeps the previous
// collection (stale-but-present beats flashing empty) and sets Err.
func (c *ImageCache) Fetch(ctx context.Context, filters api.ImageFilters) ([]models.GeneratedImage, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	body, err := c.api.List(ctx, filters)
	if err != nil {
		if api.IsUnauthorized(err) {
			c.Set(nil)
			return nil, nil
		}
		c.setErr(api.UserMessage(err))
		return nil, err
	}

	images, err := NormalizeImageList(body)
	if err != nil {
		logging.FromContext(ctx).Error("normalize image list", "error", err)
		c.setErr(api.MsgGeneric)
		return nil, err
	}

	c.Set(images)
	return images, nil
}

// Generate runs the full generation flow: upload, optimistic prepend of
// the created record, optimistic credit decrement, then a reconciling
// refetch so normalization mismatches self-heal.
func (c *ImageCache) Generate(ctx context.Context, req api.UploadRequest) (models.GeneratedImage, error) {
	ctx, span := logging.StartSpan(ctx, "generate-image")
	defer span.End()

	body, err := c.api.Upload(ctx, req)
	if err != nil {
		return models.GeneratedImage{}, err
	}

	image, normErr := NormalizeImageRecord(body)
	if normErr != nil {
		// The refetch below recovers the record; the upload did succeed.
		logging.FromContext(ctx).Warn("normalize created image", "error", normErr)
	} else {
		c.Add(image)
	}

	if c.credits != nil {
		c.credits.DecrementCredits(ctx)
	}

	if _, err := c.Fetch(ctx, api.ImageFilters{}); err != nil {
		logging.FromContext(ctx).Warn("post-generation refetch failed", "error", err)
	}

	return image, nil
}

func (c *ImageCache) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

func (c *ImageCache) setErr(message string) {
	c.mu.Lock()
	c.err = message
	c.mu.Unlock()
}
