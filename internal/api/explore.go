package api

import (
	"context"
	"net/http"
)

// DefaultExploreRange is the radius, in kilometres, used when the caller
// does not provide one.
const DefaultExploreRange = 10

// ExploreGroup wraps the /explore resource.
type ExploreGroup struct {
	c *Client
}

// Explore returns the explore endpoint group.
func (c *Client) Explore() *ExploreGroup {
	return &ExploreGroup{c: c}
}

// ExploreRequest asks for images generated near a point.
type ExploreRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Range     float64 `json:"range"`
}

// Nearby fetches images around the given point, including other users'
// images and their owner ids. Raw body returned for normalization.
func (g *ExploreGroup) Nearby(ctx context.Context, req ExploreRequest) ([]byte, error) {
	if req.Range <= 0 {
		req.Range = DefaultExploreRange
	}
	return g.c.Do(ctx, http.MethodPost, "/explore", req, nil)
}
