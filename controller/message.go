// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controller

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-poll/models"
)

// UserMessage maps err to text that is safe to show the caller. Storage
// details are never echoed.
func (c *PollController) UserMessage(err error) string {
	return Message(err, c.clock.Now())
}

// Message is UserMessage with an explicit current time
func Message(err error, now time.Time) string {
	var verr *models.ValidationError
	var rerr *models.RateLimitError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &rerr):
		if !rerr.ResetAt.After(now) {
			return "Too many vote attempts. Try again now."
		}
		return "Too many vote attempts. Try again " + humanize.RelTime(now, rerr.ResetAt, "from now", "ago") + "."
	case errors.Is(err, models.ErrRateLimited):
		return "Too many vote attempts. Try again later."
	case errors.Is(err, models.ErrValidation):
		return "Invalid request"
	case errors.Is(err, models.ErrNotFound):
		return "Poll not found"
	case errors.Is(err, models.ErrForbidden):
		return "Only the poll owner can do that"
	case errors.Is(err, models.ErrUnauthorized):
		return "You must be signed in to do that"
	case errors.Is(err, models.ErrExpired):
		return "This poll has expired"
	case errors.Is(err, models.ErrDuplicateVote):
		return "You have already voted on this poll"
	default:
		return "Something went wrong. Please try again."
	}
}
