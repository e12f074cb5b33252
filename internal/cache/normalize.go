package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emircancapkan/karma-case/internal/models"
)

// rawImage tolerates backend-specific field names (_id vs id, user vs
// userId) so every response shape normalizes to one canonical record.
type rawImage struct {
	ID        string   `json:"id"`
	AltID     string   `json:"_id"`
	URL       string   `json:"url"`
	Prompt    string   `json:"prompt"`
	CreatedAt string   `json:"createdAt"`
	User      string   `json:"user"`
	UserID    string   `json:"userId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r rawImage) normalize() models.GeneratedImage {
	img := models.GeneratedImage{
		ID:        firstNonEmpty(r.ID, r.AltID),
		URL:       r.URL,
		Prompt:    r.Prompt,
		UserID:    firstNonEmpty(r.User, r.UserID),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
	if r.CreatedAt != "" {
		if created, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			img.CreatedAt = created
		}
	}
	return img
}

// NormalizeImageList flattens any of the three known list shapes (bare
// array, wrapped {data: [...]}, paginated {data: {data: [...]}}) into
// one ordered sequence of canonical records.
func NormalizeImageList(body []byte) ([]models.GeneratedImage, error) {
	raws, err := decodeImageArray(body)
	if err != nil {
		return nil, err
	}

	images := make([]models.GeneratedImage, 0, len(raws))
	for _, raw := range raws {
		images = append(images, raw.normalize())
	}
	return images, nil
}

func decodeImageArray(body []byte) ([]rawImage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var raws []rawImage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("decode image array: %w", err)
		}
		return raws, nil
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}

	inner := bytes.TrimSpace(wrapped.Data)
	if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
		return nil, nil
	}

	if inner[0] == '[' {
		var raws []rawImage
		if err := json.Unmarshal(inner, &raws); err != nil {
			return nil, fmt.Errorf("decode wrapped image array: %w", err)
		}
		return raws, nil
	}

	var page struct {
		Data []rawImage `json:"data"`
	}
	if err := json.Unmarshal(inner, &page); err != nil {
		return nil, fmt.Errorf("decode paginated image list: %w", err)
	}
	return page.Data, nil
}

// NormalizeImageRecord extracts the single created record from an upload
// response, wrapped or bare.
func NormalizeImageRecord(body []byte) (models.GeneratedImage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return models.GeneratedImage{}, errors.New("empty upload response")
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	record := trimmed
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && len(bytes.TrimSpace(wrapped.Data)) > 0 {
		record = wrapped.Data
	}

	var raw rawImage
	if err := json.Unmarshal(record, &raw); err != nil {
		return models.GeneratedImage{}, fmt.Errorf("decode created image: %w", err)
	}

	img := raw.normalize()
	if img.ID == "" {
		return models.GeneratedImage{}, errors.New("created image has no id")
	}
	return img, nil
}

// rawEdge accepts both the canonical edge shape (type + user1/user2) and
// the legacy one (status pending/accepted).
type rawEdge struct {
	ID       string `json:"id"`
	AltID    string `json:"_id"`
	User1    string `json:"user1"`
	User2    string `json:"user2"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (r rawEdge) normalize() models.FriendEdge {
	edge := models.FriendEdge{
		ID:       firstNonEmpty(r.ID, r.AltID),
		User1:    r.User1,
		User2:    r.User2,
		Type:     r.Type,
		Username: r.Username,
		Avatar:   r.Avatar,
	}
	if edge.Type == "" {
		switch r.Status {
		case "accepted":
			edge.Type = models.EdgeFriend
		case "pending":
			edge.Type = models.EdgeRequest
		}
	}
	return edge
}

// NormalizeFriendList flattens a friend list response (bare array or
// wrapped) into canonical edges.
func NormalizeFriendList(body []byte) ([]models.FriendEdge, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	raws := []rawEdge{}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("decode friend array: %w", err)
		}
	} else {
		var wrapped struct {
			Data []rawEdge `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("decode friend response: %w", err)
		}
		raws = wrapped.Data
	}

	edges := make([]models.FriendEdge, 0, len(raws))
	for _, raw := range raws {
		edges = append(edges, raw.normalize())
	}
	return edges, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
