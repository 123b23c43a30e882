// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain and error types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, options, expires_at
  - UpdatePollRequest: optional question, options, expires_at
  - CastVoteRequest: option_index

# Response Types

Every response carries an "error" field that is null on success:

  - PollResponse: poll (with tally), error
  - PollListResponse: polls, error
  - CastVoteResponse: vote_id, error
  - ActionResponse: error

# Domain Types

  - Identity: opaque user reference, empty for anonymous callers
  - Poll: question, ordered options, optional expiry
  - Vote: one option index per ballot
  - OptionResult / PollResults: tally output

# Errors

Error kinds are sentinels so callers can use errors.Is:

	ErrValidation    - malformed input (see ValidationError)
	ErrNotFound      - poll absent
	ErrUnauthorized  - caller absent on a mutating operation
	ErrForbidden     - caller is not the poll owner
	ErrExpired       - vote or edit after expiry
	ErrDuplicateVote - voter already voted
	ErrRateLimited   - vote budget exhausted (see RateLimitError)
	ErrConflict      - storage uniqueness violation
	ErrStorage       - opaque repository failure

# Limits

	MinOptions        = 2
	MaxOptions        = 10
	MaxOptionLength   = 200
	MaxQuestionLength = 500
*/
package models
