package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds for a classified request outcome.
type Kind int

const (
	// KindAPI means the backend responded with a non-2xx status.
	KindAPI Kind = iota
	// KindNetwork means no response was received (offline, DNS, timeout).
	KindNetwork
	// KindClient means the request could not be constructed or validated.
	KindClient
)

// Fallback user-displayable messages when the backend supplies none.
const (
	MsgNetwork = "Network error. Please check your connection."
	MsgGeneric = "An error occurred. Please try again."
)

// Error is a classified request failure. Exactly one is produced per
// failed call; the pipeline never retries.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		if e.Message != "" {
			return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
		}
		return fmt.Sprintf("api error %d", e.Status)
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	default:
		return fmt.Sprintf("client error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the message suitable for direct display: the
// backend-supplied text verbatim when present, else a fixed fallback.
func (e *Error) UserMessage() string {
	if e.Kind == KindNetwork {
		return MsgNetwork
	}
	if e.Message != "" {
		return e.Message
	}
	return MsgGeneric
}

// IsUnauthorized reports whether err is an API error with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindAPI && apiErr.Status == http.StatusUnauthorized
}

// UserMessage extracts a displayable message from any classified error.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return MsgGeneric
}

func apiError(status int, message string) *Error {
	return &Error{Kind: KindAPI, Status: status, Message: message}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

func clientError(err error) *Error {
	return &Error{Kind: KindClient, Err: err}
}
