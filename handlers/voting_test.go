// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/testutil"
)

func castVote(t *testing.T, handler *VotingHandler, pollID string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/votes", body, headers)
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.CastVote(w, req)
	return w
}

func TestCastVote(t *testing.T) {
	app := testutil.NewTestApp(t)
	handler := NewVotingHandler(app.Controller, app.Config)
	poll := testutil.CreateTestPoll(t, app, "alice", time.Hour, "A", "B", "C")
	bob := testutil.AuthHeaders(app.Config, "bob")

	tests := []struct {
		name           string
		pollID         string
		body           interface{}
		headers        map[string]string
		expectedStatus int
	}{
		{"valid vote", poll.ID, map[string]int{"option_index": 2}, bob, http.StatusCreated},
		{"duplicate vote", poll.ID, map[string]int{"option_index": 0}, bob, http.StatusConflict},
		{"anonymous vote", poll.ID, map[string]int{"option_index": 1}, nil, http.StatusCreated},
		{"missing option_index", poll.ID, map[string]string{}, nil, http.StatusBadRequest},
		{"option out of range for poll", poll.ID, map[string]int{"option_index": 3}, nil, http.StatusBadRequest},
		{"option over absolute cap", poll.ID, map[string]int{"option_index": 10}, nil, http.StatusBadRequest},
		{"negative option", poll.ID, map[string]int{"option_index": -1}, nil, http.StatusBadRequest},
		{"malformed poll id", "abc", map[string]int{"option_index": 0}, nil, http.StatusBadRequest},
		{"unknown poll", "00000000-0000-4000-8000-000000000000", map[string]int{"option_index": 0}, nil, http.StatusNotFound},
		{"bad token", poll.ID, map[string]int{"option_index": 0}, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := castVote(t, handler, tt.pollID, tt.body, tt.headers)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.CastVoteResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.VoteID == "" || resp.Error != nil {
					t.Errorf("Unexpected response %+v", resp)
				}
			}
		})
	}

	if n := testutil.CountVotes(t, app.DB, poll.ID); n != 2 {
		t.Errorf("Expected 2 stored votes, got %d", n)
	}
}

func TestCastVote_ExpiredPoll(t *testing.T) {
	app := testutil.NewTestApp(t)
	handler := NewVotingHandler(app.Controller, app.Config)
	poll := testutil.CreateTestPoll(t, app, "alice", time.Minute)

	app.Clock.Advance(time.Minute + time.Nanosecond)

	// Expiry is reported even for an index the poll does not have
	for _, idx := range []int{0, 5} {
		w := castVote(t, handler, poll.ID, map[string]int{"option_index": idx}, testutil.AuthHeaders(app.Config, "bob"))
		testutil.AssertStatus(t, w, http.StatusGone)
	}

	if n := testutil.CountVotes(t, app.DB, poll.ID); n != 0 {
		t.Errorf("Expected no stored votes, got %d", n)
	}
}

func TestCastVote_ExpiryBoundary(t *testing.T) {
	app := testutil.NewTestApp(t)
	handler := NewVotingHandler(app.Controller, app.Config)
	poll := testutil.CreateTestPoll(t, app, "alice", time.Minute)

	// Exactly at expires_at the poll is still open
	app.Clock.Advance(time.Minute)
	w := castVote(t, handler, poll.ID, map[string]int{"option_index": 0}, testutil.AuthHeaders(app.Config, "bob"))
	testutil.AssertStatus(t, w, http.StatusCreated)
}

func TestCastVote_RateLimited(t *testing.T) {
	app := testutil.NewTestApp(t)
	handler := NewVotingHandler(app.Controller, app.Config)
	poll := testutil.CreateTestPoll(t, app, "alice", 0)

	for i := 0; i < 5; i++ {
		w := castVote(t, handler, poll.ID, map[string]int{"option_index": 0}, nil)
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	app.Clock.Advance(15 * time.Second)
	w := castVote(t, handler, poll.ID, map[string]int{"option_index": 0}, nil)
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)

	if got := w.Header().Get("Retry-After"); got != "45" {
		t.Errorf("Retry-After = %q, want 45", got)
	}

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Error != "Too many vote attempts. Try again 45 seconds from now." {
		t.Errorf("Unexpected message %q", resp.Error)
	}
}

func TestCastVote_RateLimitBeforeDuplicate(t *testing.T) {
	app := testutil.NewTestApp(t)
	handler := NewVotingHandler(app.Controller, app.Config)
	poll := testutil.CreateTestPoll(t, app, "alice", 0)
	bob := testutil.AuthHeaders(app.Config, "bob")

	testutil.AssertStatus(t, castVote(t, handler, poll.ID, map[string]int{"option_index": 0}, bob), http.StatusCreated)

	// Duplicates still consume the limit
	for i := 0; i < 4; i++ {
		testutil.AssertStatus(t, castVote(t, handler, poll.ID, map[string]int{"option_index": 0}, bob), http.StatusConflict)
	}
	testutil.AssertStatus(t, castVote(t, handler, poll.ID, map[string]int{"option_index": 0}, bob), http.StatusTooManyRequests)
}
