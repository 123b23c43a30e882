// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import "github.com/danielhkuo/quickly-poll/models"

// Operation is an action a caller performs on a poll
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Authorize decides whether caller may perform op on poll.
// poll must be the record just read from storage, not client input.
func Authorize(op Operation, poll models.Poll, caller models.Identity) bool {
	switch op {
	case OpRead:
		return true
	case OpUpdate, OpDelete:
		return !caller.IsAnonymous() && caller == poll.OwnerID
	default:
		return false
	}
}

// Require is Authorize with an error: ErrUnauthorized for anonymous callers,
// ErrForbidden for authenticated non-owners.
func Require(op Operation, poll models.Poll, caller models.Identity) error {
	if Authorize(op, poll, caller) {
		return nil
	}
	if caller.IsAnonymous() {
		return models.ErrUnauthorized
	}
	return models.ErrForbidden
}
