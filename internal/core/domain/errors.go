package domain

import (
	"errors"
	"strings"
)

// Authentication and session errors.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingChallenge   = errors.New("missing challenge response")
	ErrChallengeFailed    = errors.New("challenge verification failed")
	ErrMissingToken       = errors.New("missing token")
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenSigning       = errors.New("token signing failed")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrTooManyRequests    = errors.New("too many requests")
)

// Resource errors.
var (
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategoryExists     = errors.New("category already exists")
	ErrUnknownCategory    = errors.New("referenced category does not exist")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product not available")
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrImageUpload        = errors.New("image upload failed")
)

// ValidationError carries one human-readable message per failed rule.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}
