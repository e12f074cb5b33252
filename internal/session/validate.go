package session

import (
	"errors"
	"regexp"
	"strings"
)

// Client-side form limits, checked before any network call.
const (
	MinUsernameLength      = 4
	MaxUsernameLength      = 30
	MinPasswordLength      = 6
	VerificationCodeLength = 4
)

var (
	ErrUsernameInvalid  = errors.New("username must be 4-30 characters, letters, digits and underscores only")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrMailInvalid      = errors.New("invalid email format")
	ErrCodeInvalid      = errors.New("invalid verification code")
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	mailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codeRe     = regexp.MustCompile(`^\d+$`)
)

// ValidateUsername enforces the username form rules.
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if len(trimmed) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrUsernameInvalid
	}
	if !usernameRe.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateMail enforces a plausible address shape.
func ValidateMail(mail string) error {
	if !mailRe.MatchString(mail) {
		return ErrMailInvalid
	}
	return nil
}

// ValidateCode enforces the 4-digit verification code shape.
func ValidateCode(code string) error {
	if len(code) != VerificationCodeLength || !codeRe.MatchString(code) {
		return ErrCodeInvalid
	}
	return nil
}
