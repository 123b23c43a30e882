// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/ballot"
	"github.com/danielhkuo/quickly-poll/db"
	"github.com/danielhkuo/quickly-poll/metrics"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/pubsub"
	"github.com/danielhkuo/quickly-poll/tally"
)

// Deps are the collaborators of a PollController. Notifier, Clock, Metrics
// and Logger are optional.
type Deps struct {
	Repo      db.Repository
	Validator *ballot.Validator
	Notifier  pubsub.Notifier
	Clock     clockwork.Clock
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// PollController is the only component that mutates polls and votes
type PollController struct {
	repo      db.Repository
	validator *ballot.Validator
	notifier  pubsub.Notifier
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewPollController(d Deps) *PollController {
	c := &PollController{
		repo:      d.Repo,
		validator: d.Validator,
		notifier:  d.Notifier,
		clock:     d.Clock,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.notifier == nil {
		c.notifier = pubsub.Fanout{}
	}
	return c
}

// Now returns the controller's notion of the current time
func (c *PollController) Now() time.Time {
	return c.clock.Now()
}

// Create validates and stores a new poll owned by owner
func (c *PollController) Create(ctx context.Context, req models.CreatePollRequest, owner models.Identity) (models.Poll, error) {
	if owner.IsAnonymous() {
		return models.Poll{}, models.ErrUnauthorized
	}

	now := c.clock.Now().UTC()

	question, err := ValidateQuestion(req.Question)
	if err != nil {
		return models.Poll{}, err
	}
	options, err := ValidateOptions(req.Options)
	if err != nil {
		return models.Poll{}, err
	}
	expiresAt, err := validateExpiry(req.ExpiresAt, now)
	if err != nil {
		return models.Poll{}, err
	}

	poll := models.Poll{
		ID:        auth.GenerateID(),
		OwnerID:   owner,
		Question:  question,
		Options:   options,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.repo.InsertPoll(ctx, poll); err != nil {
		return models.Poll{}, c.storageError("failed to insert poll", err, "owner", string(owner))
	}

	if c.metrics != nil {
		c.metrics.PollsCreated.Inc()
	}
	c.logger.Info("poll created", "poll_id", poll.ID, "owner", string(owner), "options", len(options))

	return poll, nil
}

// Get returns a poll. Anyone may read any poll.
func (c *PollController) Get(ctx context.Context, id string) (models.Poll, error) {
	if err := auth.ValidateID(id); err != nil {
		return models.Poll{}, models.ErrNotFound
	}

	poll, err := c.repo.FindPoll(ctx, id)
	if err != nil {
		return models.Poll{}, c.storageError("failed to query poll", err, "poll_id", id)
	}
	return poll, nil
}

// GetWithTally returns a poll with its current results
func (c *PollController) GetWithTally(ctx context.Context, id string) (models.PollResults, error) {
	poll, err := c.Get(ctx, id)
	if err != nil {
		return models.PollResults{}, err
	}

	votes, err := c.repo.ListVotes(ctx, poll.ID)
	if err != nil {
		return models.PollResults{}, c.storageError("failed to query votes", err, "poll_id", id)
	}

	res := tally.FromVotes(poll.Options, votes)
	return models.PollResults{
		Poll:       poll,
		Results:    res.Options,
		TotalVotes: res.TotalVotes,
		IsExpired:  poll.IsExpired(c.clock.Now()),
	}, nil
}

// ListByOwner returns the caller's own polls
func (c *PollController) ListByOwner(ctx context.Context, caller models.Identity) ([]models.Poll, error) {
	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}

	polls, err := c.repo.ListPolls(ctx, caller)
	if err != nil {
		return nil, c.storageError("failed to list polls", err, "owner", string(caller))
	}
	return polls, nil
}

// Update changes a poll the caller owns. Expired polls are frozen, and
// options cannot be replaced once anyone has voted.
func (c *PollController) Update(ctx context.Context, id string, req models.UpdatePollRequest, caller models.Identity) (models.Poll, error) {
	poll, err := c.Get(ctx, id)
	if err != nil {
		return models.Poll{}, err
	}

	if err := auth.Require(auth.OpUpdate, poll, caller); err != nil {
		c.logger.Warn("poll update denied", "poll_id", id, "caller", string(caller))
		return models.Poll{}, err
	}

	now := c.clock.Now().UTC()
	if poll.IsExpired(now) {
		return models.Poll{}, models.ErrExpired
	}

	if req.Question == nil && req.Options == nil && req.ExpiresAt == nil {
		return models.Poll{}, models.Invalid("nothing to update")
	}

	fields := models.PollUpdate{UpdatedAt: now}
	if req.Question != nil {
		q, err := ValidateQuestion(*req.Question)
		if err != nil {
			return models.Poll{}, err
		}
		fields.Question = &q
	}
	if req.Options != nil {
		fields.Options, err = ValidateOptions(req.Options)
		if err != nil {
			return models.Poll{}, err
		}
	}
	if req.ExpiresAt != nil {
		fields.ExpiresAt, err = validateExpiry(req.ExpiresAt, now)
		if err != nil {
			return models.Poll{}, err
		}
	}

	if err := c.repo.UpdatePoll(ctx, poll.ID, caller, fields); err != nil {
		return models.Poll{}, c.storageError("failed to update poll", err, "poll_id", id)
	}

	c.notifier.PollChanged(ctx, poll.ID)
	c.logger.Info("poll updated", "poll_id", poll.ID, "options_changed", fields.Options != nil)

	return c.Get(ctx, poll.ID)
}

// Delete removes a poll the caller owns along with its votes
func (c *PollController) Delete(ctx context.Context, id string, caller models.Identity) error {
	poll, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := auth.Require(auth.OpDelete, poll, caller); err != nil {
		c.logger.Warn("poll delete denied", "poll_id", id, "caller", string(caller))
		return err
	}

	if err := c.repo.DeletePoll(ctx, poll.ID, caller); err != nil {
		return c.storageError("failed to delete poll", err, "poll_id", id)
	}

	if c.metrics != nil {
		c.metrics.PollsDeleted.Inc()
	}
	c.notifier.PollChanged(ctx, poll.ID)
	c.logger.Info("poll deleted", "poll_id", poll.ID)

	return nil
}

// Vote admits and records one ballot. The repository's unique constraint
// is authoritative: a conflict on insert is reported as a duplicate vote.
func (c *PollController) Vote(ctx context.Context, pollID string, optionIndex int, voter models.Identity) (vote models.Vote, err error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveVote(err, time.Since(start))
		}
	}()

	poll, err := c.validator.Validate(ctx, ballot.Attempt{
		PollID:      pollID,
		OptionIndex: optionIndex,
		Voter:       voter,
	})
	if err != nil {
		c.logger.Info("vote rejected", "poll_id", pollID, "anonymous", voter.IsAnonymous(), "reason", metrics.Reason(err))
		return models.Vote{}, c.storageError("failed to validate vote", err, "poll_id", pollID)
	}

	vote = models.Vote{
		ID:          auth.GenerateID(),
		PollID:      poll.ID,
		VoterID:     voter,
		OptionIndex: optionIndex,
		CastAt:      c.clock.Now().UTC(),
	}

	if err := c.repo.InsertVote(ctx, vote); err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.logger.Warn("duplicate vote caught by storage", "poll_id", poll.ID)
			return models.Vote{}, models.ErrDuplicateVote
		}
		return models.Vote{}, c.storageError("failed to insert vote", err, "poll_id", poll.ID)
	}

	c.notifier.PollChanged(ctx, poll.ID)
	c.logger.Info("vote recorded", "poll_id", poll.ID, "vote_id", vote.ID, "anonymous", voter.IsAnonymous())

	return vote, nil
}

// storageError passes domain errors through and wraps anything else as
// models.ErrStorage after logging the detail.
func (c *PollController) storageError(msg string, err error, args ...any) error {
	if isDomainError(err) {
		return err
	}
	c.logger.Error(msg, append(args, "error", err)...)
	return fmt.Errorf("%w: %w", models.ErrStorage, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		models.ErrValidation,
		models.ErrNotFound,
		models.ErrUnauthorized,
		models.ErrExpired,
		models.ErrDuplicateVote,
		models.ErrRateLimited,
		models.ErrStorage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
