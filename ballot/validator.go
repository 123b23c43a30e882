// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/ratelimit"
)

// Reference policy
const (
	DefaultMaxRequests    = 5
	DefaultWindow         = 60 * time.Second
	DefaultMaxOptionIndex = models.MaxOptions - 1
)

// Policy bounds vote attempts
type Policy struct {
	MaxRequests int
	Window      time.Duration
	// Absolute cap on option_index, checked before any lookup
	MaxOptionIndex int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRequests:    DefaultMaxRequests,
		Window:         DefaultWindow,
		MaxOptionIndex: DefaultMaxOptionIndex,
	}
}

// Attempt is a single vote-cast request
type Attempt struct {
	PollID      string
	OptionIndex int
	Voter       models.Identity
}

// Lookup is the read side of the repository the validator needs
type Lookup interface {
	FindPoll(ctx context.Context, id string) (models.Poll, error)
	FindVote(ctx context.Context, pollID string, voter models.Identity) (models.Vote, bool, error)
}

type Validator struct {
	lookup  Lookup
	limiter *ratelimit.Limiter
	clock   clockwork.Clock
	policy  Policy
}

func NewValidator(lookup Lookup, limiter *ratelimit.Limiter, clock clockwork.Clock, policy Policy) *Validator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Validator{lookup: lookup, limiter: limiter, clock: clock, policy: policy}
}

// Validate runs the admission checks in a fixed order and returns the poll
// snapshot they were evaluated against:
//
//  1. structure (id format, absolute option bound)
//  2. existence
//  3. expiry
//  4. option bounds for this poll
//  5. rate limit
//  6. duplicate vote (authenticated voters only)
//
// Expiry is reported before a bad option, and the rate limit is consumed
// even when the attempt would turn out to be a duplicate.
func (v *Validator) Validate(ctx context.Context, a Attempt) (models.Poll, error) {
	if err := CheckStructure(a, v.policy); err != nil {
		return models.Poll{}, err
	}

	poll, err := v.lookup.FindPoll(ctx, a.PollID)
	if err != nil {
		return models.Poll{}, err
	}

	if err := CheckExpiry(poll, v.clock.Now()); err != nil {
		return poll, err
	}

	if err := CheckOption(poll, a.OptionIndex); err != nil {
		return poll, err
	}

	res := v.limiter.Check(RateLimitKey(a), v.policy.MaxRequests, v.policy.Window)
	if !res.Allowed {
		return poll, &models.RateLimitError{ResetAt: res.ResetAt}
	}

	if !a.Voter.IsAnonymous() {
		_, found, err := v.lookup.FindVote(ctx, poll.ID, a.Voter)
		if err != nil {
			return poll, err
		}
		if found {
			return poll, models.ErrDuplicateVote
		}
	}

	return poll, nil
}

// CheckStructure validates an attempt without touching storage
func CheckStructure(a Attempt, p Policy) error {
	if err := auth.ValidateID(a.PollID); err != nil {
		return models.Invalid("poll id is malformed")
	}
	if a.OptionIndex < 0 || a.OptionIndex > p.MaxOptionIndex {
		return models.Invalid("option index must be between 0 and %d", p.MaxOptionIndex)
	}
	return nil
}

// CheckExpiry fails with models.ErrExpired once now is past the poll's expiry
func CheckExpiry(poll models.Poll, now time.Time) error {
	if poll.IsExpired(now) {
		return models.ErrExpired
	}
	return nil
}

// CheckOption fails with models.ErrInvalidOption unless idx selects one of
// the poll's options
func CheckOption(poll models.Poll, idx int) error {
	if idx < 0 || idx >= len(poll.Options) {
		return models.ErrInvalidOption
	}
	return nil
}

// RateLimitKey buckets authenticated voters by identity and anonymous voters
// by poll, since anonymous callers have no stable identity.
func RateLimitKey(a Attempt) string {
	if a.Voter.IsAnonymous() {
		return "vote:anonymous:" + a.PollID
	}
	return "vote:" + string(a.Voter)
}
