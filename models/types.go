// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll limits
const (
	MinOptions        = 2
	MaxOptions        = 10
	MaxOptionLength   = 200
	MaxQuestionLength = 500
)

// Identity is an opaque reference to an authenticated user.
// The zero value is the anonymous caller.
type Identity string

// Anonymous is the identity of a caller without a session.
const Anonymous Identity = ""

func (id Identity) IsAnonymous() bool {
	return id == Anonymous
}

// Request types

type CreatePollRequest struct {
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Nil fields are left unchanged
type UpdatePollRequest struct {
	Question  *string    `json:"question,omitempty"`
	Options   []string   `json:"options,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CastVoteRequest struct {
	OptionIndex *int `json:"option_index"`
}

// Response types

// PollResponse carries a poll or an error, never both
type PollResponse struct {
	Poll  *PollResults `json:"poll,omitempty"`
	Error *string      `json:"error"`
}

type PollListResponse struct {
	Polls []Poll  `json:"polls"`
	Error *string `json:"error"`
}

type CastVoteResponse struct {
	VoteID string  `json:"vote_id,omitempty"`
	Error  *string `json:"error"`
}

type ResultsResponse struct {
	Results    []OptionResult `json:"results"`
	TotalVotes int            `json:"total_votes"`
	IsExpired  bool           `json:"is_expired"`
	Error      *string        `json:"error"`
}

type ActionResponse struct {
	Error *string `json:"error"`
}

// Domain types

type Poll struct {
	ID        string     `json:"id"`
	OwnerID   Identity   `json:"owner_id"`
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsExpired reports whether the poll stopped accepting votes before now.
func (p Poll) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// PollUpdate holds the fields an owner may change. Nil means unchanged.
type PollUpdate struct {
	Question  *string
	Options   []string
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

type Vote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterID     Identity  `json:"-"` // Never expose in JSON
	OptionIndex int       `json:"option_index"`
	CastAt      time.Time `json:"cast_at"`
}

// Tally types

type OptionResult struct {
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// PollResults flattens the poll's fields alongside its tally
type PollResults struct {
	Poll
	Results    []OptionResult `json:"results"`
	TotalVotes int            `json:"total_votes"`
	IsExpired  bool           `json:"is_expired"`
}

// Error response

type ErrorResponse struct {
	Error string `json:"error"`
}
