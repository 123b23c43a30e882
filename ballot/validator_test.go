// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/ratelimit"
)

type fakeLookup struct {
	polls     map[string]models.Poll
	votes     map[string]bool // pollID + "|" + voter
	findCalls int
	voteCalls int
	err       error
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{polls: map[string]models.Poll{}, votes: map[string]bool{}}
}

func (f *fakeLookup) FindPoll(ctx context.Context, id string) (models.Poll, error) {
	f.findCalls++
	if f.err != nil {
		return models.Poll{}, f.err
	}
	p, ok := f.polls[id]
	if !ok {
		return models.Poll{}, models.ErrNotFound
	}
	return p, nil
}

func (f *fakeLookup) FindVote(ctx context.Context, pollID string, voter models.Identity) (models.Vote, bool, error) {
	f.voteCalls++
	if f.votes[pollID+"|"+string(voter)] {
		return models.Vote{PollID: pollID, VoterID: voter}, true, nil
	}
	return models.Vote{}, false, nil
}

type fixture struct {
	lookup    *fakeLookup
	store     *ratelimit.MemoryStore
	clock     *clockwork.FakeClock
	validator *Validator
}

func newFixture() *fixture {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := ratelimit.NewMemoryStore()
	lookup := newFakeLookup()
	return &fixture{
		lookup:    lookup,
		store:     store,
		clock:     clock,
		validator: NewValidator(lookup, ratelimit.NewLimiter(store, clock), clock, DefaultPolicy()),
	}
}

func (f *fixture) addPoll(options []string, expiresAt *time.Time) models.Poll {
	p := models.Poll{
		ID:        uuid.NewString(),
		OwnerID:   "owner",
		Question:  "Q?",
		Options:   options,
		ExpiresAt: expiresAt,
		CreatedAt: f.clock.Now(),
	}
	f.lookup.polls[p.ID] = p
	return p
}

func TestValidate_Success(t *testing.T) {
	f := newFixture()
	poll := f.addPoll([]string{"A", "B"}, nil)

	got, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, OptionIndex: 1, Voter: "alice"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.ID != poll.ID {
		t.Errorf("snapshot id = %s, want %s", got.ID, poll.ID)
	}
	if f.lookup.findCalls != 1 {
		t.Errorf("FindPoll called %d times, want exactly 1", f.lookup.findCalls)
	}
}

func TestValidate_Structure(t *testing.T) {
	tests := []struct {
		name    string
		attempt Attempt
	}{
		{"malformed poll id", Attempt{PollID: "nope", OptionIndex: 0}},
		{"empty poll id", Attempt{PollID: "", OptionIndex: 0}},
		{"negative option", Attempt{PollID: uuid.NewString(), OptionIndex: -1}},
		{"option above absolute bound", Attempt{PollID: uuid.NewString(), OptionIndex: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.validator.Validate(context.Background(), tt.attempt)
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
			if f.lookup.findCalls != 0 {
				t.Error("structural failure must not reach the repository")
			}
		})
	}
}

func TestValidate_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.validator.Validate(context.Background(), Attempt{PollID: uuid.NewString(), OptionIndex: 0, Voter: "alice"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Validate() error = %v, want ErrNotFound", err)
	}
}

func TestValidate_ExpiredBeatsInvalidOption(t *testing.T) {
	f := newFixture()
	past := f.clock.Now().Add(-time.Minute)
	poll := f.addPoll([]string{"A", "B"}, &past)

	for idx := 0; idx <= 9; idx++ {
		_, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, OptionIndex: idx, Voter: "alice"})
		if !errors.Is(err, models.ErrExpired) {
			t.Errorf("option %d: error = %v, want ErrExpired", idx, err)
		}
	}

	// Expired attempts never consume rate budget
	if f.store.Len() != 0 {
		t.Errorf("expired attempts created %d rate buckets", f.store.Len())
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	f := newFixture()
	expires := f.clock.Now().Add(time.Minute)
	poll := f.addPoll([]string{"A", "B"}, &expires)

	f.clock.Advance(time.Minute)
	// At exactly expires_at the poll is still open
	if _, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, OptionIndex: 0, Voter: "a"}); err != nil {
		t.Errorf("at expiry instant: error = %v, want nil", err)
	}

	f.clock.Advance(time.Nanosecond)
	if _, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, OptionIndex: 0, Voter: "b"}); !errors.Is(err, models.ErrExpired) {
		t.Errorf("after expiry: error = %v, want ErrExpired", err)
	}
}

func TestValidate_InvalidOption(t *testing.T) {
	f := newFixture()
	poll := f.addPoll([]string{"A", "B", "C"}, nil)

	_, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, OptionIndex: 3, Voter: "alice"})
	if !errors.Is(err, models.ErrInvalidOption) {
		t.Errorf("Validate() error = %v, want ErrInvalidOption", err)
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Error("ErrInvalidOption should be a validation error")
	}
}

func TestValidate_RateLimitBeforeDuplicate(t *testing.T) {
	f := newFixture()
	poll := f.addPoll([]string{"A", "B"}, nil)
	f.lookup.votes[poll.ID+"|alice"] = true

	attempt := Attempt{PollID: poll.ID, OptionIndex: 0, Voter: "alice"}

	for i := 0; i < DefaultMaxRequests; i++ {
		_, err := f.validator.Validate(context.Background(), attempt)
		if !errors.Is(err, models.ErrDuplicateVote) {
			t.Fatalf("attempt %d: error = %v, want ErrDuplicateVote", i+1, err)
		}
	}

	callsBefore := f.lookup.voteCalls
	_, err := f.validator.Validate(context.Background(), attempt)
	if !errors.Is(err, models.ErrRateLimited) {
		t.Fatalf("attempt 6: error = %v, want ErrRateLimited", err)
	}
	if f.lookup.voteCalls != callsBefore {
		t.Error("duplicate lookup ran after the rate limit fired")
	}

	var rle *models.RateLimitError
	if !errors.As(err, &rle) {
		t.Fatal("expected *RateLimitError")
	}
	if want := f.clock.Now().Add(DefaultWindow); !rle.ResetAt.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", rle.ResetAt, want)
	}

	// Next window admits again
	f.clock.Advance(DefaultWindow)
	_, err = f.validator.Validate(context.Background(), attempt)
	if !errors.Is(err, models.ErrDuplicateVote) {
		t.Errorf("after window: error = %v, want ErrDuplicateVote", err)
	}
}

func TestValidate_AnonymousRateLimitedPerPoll(t *testing.T) {
	f := newFixture()
	pollA := f.addPoll([]string{"A", "B"}, nil)
	pollB := f.addPoll([]string{"A", "B"}, nil)

	anon := Attempt{PollID: pollA.ID, OptionIndex: 0, Voter: models.Anonymous}
	for i := 0; i < DefaultMaxRequests; i++ {
		if _, err := f.validator.Validate(context.Background(), anon); err != nil {
			t.Fatalf("anonymous attempt %d: %v", i+1, err)
		}
	}
	if _, err := f.validator.Validate(context.Background(), anon); !errors.Is(err, models.ErrRateLimited) {
		t.Errorf("6th anonymous attempt: error = %v, want ErrRateLimited", err)
	}

	// Other polls have their own anonymous bucket
	if _, err := f.validator.Validate(context.Background(), Attempt{PollID: pollB.ID, OptionIndex: 0}); err != nil {
		t.Errorf("other poll: error = %v", err)
	}

	// Anonymous voters never hit the duplicate lookup
	if f.lookup.voteCalls != 0 {
		t.Errorf("FindVote called %d times for anonymous voters", f.lookup.voteCalls)
	}
}

func TestValidate_AuthenticatedRateLimitSpansPolls(t *testing.T) {
	f := newFixture()

	for i := 0; i < DefaultMaxRequests; i++ {
		poll := f.addPoll([]string{"A", "B"}, nil)
		if _, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, Voter: "alice"}); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	poll := f.addPoll([]string{"A", "B"}, nil)
	if _, err := f.validator.Validate(context.Background(), Attempt{PollID: poll.ID, Voter: "alice"}); !errors.Is(err, models.ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
}

func TestValidate_StorageErrorPropagates(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection refused")
	f.lookup.err = boom

	_, err := f.validator.Validate(context.Background(), Attempt{PollID: uuid.NewString(), Voter: "alice"})
	if !errors.Is(err, boom) {
		t.Errorf("Validate() error = %v, want %v", err, boom)
	}
}

func TestRateLimitKey(t *testing.T) {
	id := uuid.NewString()

	if got := RateLimitKey(Attempt{PollID: id, Voter: "alice"}); got != "vote:alice" {
		t.Errorf("authenticated key = %q", got)
	}
	if got := RateLimitKey(Attempt{PollID: id}); got != "vote:anonymous:"+id {
		t.Errorf("anonymous key = %q", got)
	}
}

func TestCheckHelpers(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	if err := CheckExpiry(models.Poll{}, now); err != nil {
		t.Errorf("no expiry: %v", err)
	}
	if err := CheckExpiry(models.Poll{ExpiresAt: &future}, now); err != nil {
		t.Errorf("future expiry: %v", err)
	}
	if err := CheckExpiry(models.Poll{ExpiresAt: &past}, now); !errors.Is(err, models.ErrExpired) {
		t.Errorf("past expiry: %v", err)
	}

	poll := models.Poll{Options: []string{"A", "B"}}
	if err := CheckOption(poll, 1); err != nil {
		t.Errorf("valid option: %v", err)
	}
	if err := CheckOption(poll, 2); !errors.Is(err, models.ErrInvalidOption) {
		t.Errorf("invalid option: %v", err)
	}
}
