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

// TestFullVotingWorkflow tests the complete end-to-end workflow:
// 1. Owner creates a poll
// 2. Owner edits the question and options before any vote
// 3. Voters cast votes (authenticated and anonymous)
// 4. A repeat vote is rejected
// 5. Option edits are refused once votes exist
// 6. Results reflect the votes
// 7. The poll expires and stops accepting votes
// 8. Owner deletes the poll
func TestFullVotingWorkflow(t *testing.T) {
	app := testutil.NewTestApp(t)
	pollHandler := NewPollHandler(app.Controller, app.Config)
	votingHandler := NewVotingHandler(app.Controller, app.Config)
	resultsHandler := NewResultsHandler(app.Controller, app.Hub, app.Config)
	owner := testutil.AuthHeaders(app.Config, "owner")

	// Step 1: Create a poll
	expires := testutil.Epoch.Add(time.Hour)
	req := testutil.MakeRequest("POST", "/polls", models.CreatePollRequest{
		Question:  "Integration Test Poll",
		Options:   []string{"Red", "Green"},
		ExpiresAt: &expires,
	}, owner)
	w := httptest.NewRecorder()
	pollHandler.CreatePoll(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create poll failed: %d - %s", w.Code, w.Body.String())
	}

	var createResp models.PollResponse
	testutil.AssertJSON(t, w, &createResp)
	pollID := createResp.Poll.ID
	t.Logf("Step 1 - Created poll: %s", pollID)

	// Step 2: Edit before voting
	question := "Favourite colour?"
	req = testutil.MakeRequest("PATCH", "/polls/"+pollID, models.UpdatePollRequest{
		Question: &question,
		Options:  []string{"Red", "Green", "Blue"},
	}, owner)
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	pollHandler.UpdatePoll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 2 - Update failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 3: Cast votes
	votes := []struct {
		user string
		idx  int
	}{
		{"v1", 2}, {"v2", 2}, {"v3", 0}, {"", 2},
	}
	for _, v := range votes {
		var headers map[string]string
		if v.user != "" {
			headers = testutil.AuthHeaders(app.Config, v.user)
		}
		w = castVote(t, votingHandler, pollID, map[string]int{"option_index": v.idx}, headers)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 3 - Vote by %q failed: %d - %s", v.user, w.Code, w.Body.String())
		}
	}

	// Step 4: Repeat vote
	w = castVote(t, votingHandler, pollID, map[string]int{"option_index": 1}, testutil.AuthHeaders(app.Config, "v1"))
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Step 5: Options are locked now
	req = testutil.MakeRequest("PATCH", "/polls/"+pollID, models.UpdatePollRequest{
		Options: []string{"Cyan", "Magenta"},
	}, owner)
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	pollHandler.UpdatePoll(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// Step 6: Results
	req = httptest.NewRequest("GET", "/polls/"+pollID+"/results", nil)
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	resultsHandler.GetResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var results models.ResultsResponse
	testutil.AssertJSON(t, w, &results)
	if results.TotalVotes != 4 {
		t.Errorf("Step 6 - Expected 4 votes, got %d", results.TotalVotes)
	}
	if results.Results[2].Text != "Blue" || results.Results[2].Percentage != 75 {
		t.Errorf("Step 6 - Unexpected Blue result %+v", results.Results[2])
	}
	if results.Results[0].Percentage != 25 || results.Results[1].Percentage != 0 {
		t.Errorf("Step 6 - Unexpected results %+v", results.Results)
	}

	// Step 7: Expiry
	app.Clock.Advance(2 * time.Hour)
	w = castVote(t, votingHandler, pollID, map[string]int{"option_index": 0}, testutil.AuthHeaders(app.Config, "late"))
	testutil.AssertStatus(t, w, http.StatusGone)

	// Step 8: Delete
	req = testutil.MakeRequest("DELETE", "/polls/"+pollID, nil, owner)
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	pollHandler.DeletePoll(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = httptest.NewRequest("GET", "/polls/"+pollID, nil)
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	pollHandler.GetPoll(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.Invalid("bad"), http.StatusBadRequest},
		{models.ErrOptionsLocked, http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrDuplicateVote, http.StatusConflict},
		{models.ErrExpired, http.StatusGone},
		{&models.RateLimitError{}, http.StatusTooManyRequests},
		{models.ErrStorage, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
