package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context) (string, bool) {
	return s.token, s.token != ""
}

func TestClientPublicEndpointOmitsAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "tok-valid"})
	if _, err := client.Do(context.Background(), http.MethodPost, "/auth/login", map[string]string{"username": "a"}, nil); err != nil {
		t.Fatalf("do: %v", err)
	}

	if gotAuth != "" {
		t.Fatalf("login request must never carry Authorization, got %q", gotAuth)
	}
}

func TestClientProtectedEndpointAttachesAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "tok-valid"})
	if _, err := client.Do(context.Background(), http.MethodPost, "/user/update", map[string]string{"username": "b"}, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "Bearer tok-valid" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientProtectedEndpointWithoutToken(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{})
	if _, err := client.Do(context.Background(), http.MethodPost, "/user/update", nil, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if hasAuth {
		t.Fatal("expected no Authorization header when no token is stored")
	}
}

func TestClientClassifiesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"message":"prompt rejected"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Do(context.Background(), http.MethodPost, "/image/upload", nil, nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindAPI || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected classification: %+v", apiErr)
	}
	if apiErr.UserMessage() != "prompt rejected" {
		t.Fatalf("expected backend message verbatim, got %q", apiErr.UserMessage())
	}
}

func TestClientClassifiesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Do(context.Background(), http.MethodGet, "/image", nil, nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNetwork {
		t.Fatalf("expected network classification, got %v", err)
	}
	if apiErr.UserMessage() != MsgNetwork {
		t.Fatalf("expected network fallback message, got %q", apiErr.UserMessage())
	}
}

func TestClientPicksMultipartByShape(t *testing.T) {
	var contentType, prompt, fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		prompt = r.FormValue("prompt")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			raw, _ := io.ReadAll(file)
			fileBody = string(raw)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	payload := &MultipartPayload{
		Fields:   map[string]string{"prompt": "a cat wizard"},
		FileName: "photo.jpg",
		File:     strings.NewReader("jpegdata"),
	}
	if _, err := client.Do(context.Background(), http.MethodPost, "/image/upload", payload, nil); err != nil {
		t.Fatalf("do: %v", err)
	}

	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("expected multipart encoding, got %q", contentType)
	}
	if prompt != "a cat wizard" || fileBody != "jpegdata" {
		t.Fatalf("multipart fields lost: prompt=%q file=%q", prompt, fileBody)
	}
}

func TestClientEncodesJSONByDefault(t *testing.T) {
	var contentType, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if _, err := client.Do(context.Background(), http.MethodPost, "/explore", map[string]float64{"latitude": 41}, nil); err != nil {
		t.Fatalf("do: %v", err)
	}

	if contentType != "application/json" {
		t.Fatalf("expected json encoding, got %q", contentType)
	}
	if !strings.Contains(body, `"latitude":41`) {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestClientAppendsQueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	params := url.Values{}
	params.Set("page", "2")
	params.Set("limit", "20")
	if _, err := client.Do(context.Background(), http.MethodGet, "/image", nil, params); err != nil {
		t.Fatalf("do: %v", err)
	}

	if gotQuery.Get("page") != "2" || gotQuery.Get("limit") != "20" {
		t.Fatalf("query params lost: %v", gotQuery)
	}
}
