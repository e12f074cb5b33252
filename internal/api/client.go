package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emircancapkan/karma-case/internal/logging"
)

// DefaultTimeout applies uniformly to every request, uploads included.
const DefaultTimeout = 30 * time.Second

// publicEndpoints never carry an Authorization header and never trigger
// a token lookup.
var publicEndpoints = []string{
	"/auth/login",
	"/auth/register",
	"/auth/check-username",
	"/auth/check-mail",
}

// TokenSource supplies the current bearer token immediately before a
// request is sent. The persistent store implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// MultipartPayload is the raw multipart container for upload requests.
// The pipeline picks multipart encoding whenever the body has this
// shape; every other body is JSON-encoded.
type MultipartPayload struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
}

// Client is the authenticated request pipeline. It attaches the bearer
// token for protected routes, enforces the fixed timeout, and classifies
// every failure before returning it.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	pacer   *Pacer
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the fixed request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithPacer installs an outbound rate limiter.
func WithPacer(p *Pacer) Option {
	return func(c *Client) {
		c.pacer = p
	}
}

// NewClient constructs the pipeline targeting baseURL. tokens may be nil
// for a client that only ever hits public endpoints.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the standard success wrapper the backend responds with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Do performs one logical HTTP call and returns the raw response body on
// any 2xx status. Failures come back as a single classified *Error.
func (c *Client) Do(ctx context.Context, method, path string, body any, params url.Values) ([]byte, error) {
	logger := logging.FromContext(ctx).With(
		slog.String("request_id", uuid.NewString()),
		slog.String("method", method),
		slog.String("path", path),
	)

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, clientError(fmt.Errorf("rate limit wait: %w", err))
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch payload := body.(type) {
	case nil:
	case *MultipartPayload:
		encoded, ct, err := encodeMultipart(payload)
		if err != nil {
			logger.Error("encode multipart body", "error", err)
			return nil, clientError(err)
		}
		reader, contentType = encoded, ct
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			logger.Error("encode request body", "error", err)
			return nil, clientError(fmt.Errorf("encode body: %w", err))
		}
		reader, contentType = bytes.NewReader(encoded), "application/json"
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		logger.Error("build request", "error", err)
		return nil, clientError(fmt.Errorf("build request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// The token is read fresh from the store for every protected call so
	// a login or logout in another flow takes effect immediately.
	if !isPublic(path) && c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("request transport failed", "error", err)
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("read response body", "error", err)
		return nil, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := backendMessage(respBody)
		logger.Warn("request rejected", "status", resp.StatusCode, "message", message)
		return nil, apiError(resp.StatusCode, message)
	}

	logger.Info("request completed", "status", resp.StatusCode)
	return respBody, nil
}

func isPublic(path string) bool {
	for _, endpoint := range publicEndpoints {
		if strings.Contains(path, endpoint) {
			return true
		}
	}
	return false
}

func encodeMultipart(payload *MultipartPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for field, value := range payload.Fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field, err)
		}
	}

	if payload.File != nil {
		fileField := payload.FileField
		if fileField == "" {
			fileField = "file"
		}
		part, err := writer.CreateFormFile(fileField, payload.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, payload.File); err != nil {
			return nil, "", fmt.Errorf("copy file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}
