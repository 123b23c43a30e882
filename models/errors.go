// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("poll not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrExpired       = errors.New("poll has expired")
	ErrDuplicateVote = errors.New("voter has already voted on this poll")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrConflict      = errors.New("unique constraint conflict")
	ErrStorage       = errors.New("storage failure")

	// ErrForbidden is the Unauthorized kind for an authenticated non-owner
	ErrForbidden = fmt.Errorf("%w: caller does not own this poll", ErrUnauthorized)
)

// ValidationError describes malformed input. The message is safe to show users.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidOption = &ValidationError{Message: "option index is out of range for this poll"}
	ErrOptionsLocked = &ValidationError{Message: "options cannot be changed once votes have been cast"}
)

// RateLimitError is returned when a caller exhausted its window.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded until %s", e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
