package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// ImageGroup wraps the /image resource.
type ImageGroup struct {
	c *Client
}

// Image returns the image endpoint group.
func (c *Client) Image() *ImageGroup {
	return &ImageGroup{c: c}
}

// ImageFilters narrows a list query by location and page window.
type ImageFilters struct {
	Latitude  *float64
	Longitude *float64
	Radius    *float64
	Page      int
	Limit     int
}

func (f ImageFilters) values() url.Values {
	params := url.Values{}
	if f.Latitude != nil {
		params.Set("latitude", strconv.FormatFloat(*f.Latitude, 'f', -1, 64))
	}
	if f.Longitude != nil {
		params.Set("longitude", strconv.FormatFloat(*f.Longitude, 'f', -1, 64))
	}
	if f.Radius != nil {
		params.Set("radius", strconv.FormatFloat(*f.Radius, 'f', -1, 64))
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	return params
}

// UploadRequest is the multipart generation payload for POST /image/upload.
type UploadRequest struct {
	File      io.Reader
	FileName  string
	Latitude  float64
	Longitude float64
	Prompt    string
}

// Upload submits the source photo and prompt for generation. The raw
// response body is returned so callers can normalize the created record.
func (g *ImageGroup) Upload(ctx context.Context, req UploadRequest) ([]byte, error) {
	payload := &MultipartPayload{
		Fields: map[string]string{
			"latitude":  strconv.FormatFloat(req.Latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(req.Longitude, 'f', -1, 64),
			"prompt":    req.Prompt,
		},
		FileField: "file",
		FileName:  req.FileName,
		File:      req.File,
	}
	return g.c.Do(ctx, http.MethodPost, "/image/upload", payload, nil)
}

// List fetches the caller's generated images. The raw response body is
// returned because the backend answers in several shapes.
func (g *ImageGroup) List(ctx context.Context, filters ImageFilters) ([]byte, error) {
	return g.c.Do(ctx, http.MethodGet, "/image", nil, filters.values())
}
