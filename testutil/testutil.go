// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-poll/auth"
	"github.com/danielhkuo/quickly-poll/ballot"
	"github.com/danielhkuo/quickly-poll/cliparse"
	"github.com/danielhkuo/quickly-poll/controller"
	"github.com/danielhkuo/quickly-poll/db"
	"github.com/danielhkuo/quickly-poll/metrics"
	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/pubsub"
	"github.com/danielhkuo/quickly-poll/ratelimit"
)

// Epoch is the fake clock's starting time in every test app
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB creates a fresh file-backed SQLite database with the full
// schema. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection serialises writers the way a single SQLite file needs
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  "sqlite",
		SessionSalt:   "test-session-salt",
		VoteLimit:     ballot.DefaultMaxRequests,
		VoteWindow:    ballot.DefaultWindow,
		SweepInterval: cliparse.DefaultSweepInterval,
	}
}

// App is a fully wired service backed by a throwaway database and a fake
// clock starting at Epoch.
type App struct {
	DB         *sql.DB
	Repo       *db.SQLRepository
	Clock      *clockwork.FakeClock
	Store      *ratelimit.MemoryStore
	Hub        *pubsub.Hub
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Controller *controller.PollController
	Config     cliparse.Config
}

// NewTestApp wires every component the way main does and starts the hub
func NewTestApp(t *testing.T) *App {
	t.Helper()

	conn := SetupTestDB(t)
	cfg := GetTestConfig()

	app := &App{
		DB:       conn,
		Repo:     db.NewSQLRepository(conn),
		Clock:    clockwork.NewFakeClockAt(Epoch),
		Store:    ratelimit.NewMemoryStore(),
		Hub:      pubsub.NewHub(),
		Registry: prometheus.NewRegistry(),
		Config:   cfg,
	}
	app.Metrics = metrics.New(app.Registry)

	limiter := ratelimit.NewLimiter(app.Store, app.Clock).WithObserver(app.Metrics)
	policy := ballot.Policy{
		MaxRequests:    cfg.VoteLimit,
		Window:         cfg.VoteWindow,
		MaxOptionIndex: ballot.DefaultMaxOptionIndex,
	}

	app.Controller = controller.NewPollController(controller.Deps{
		Repo:      app.Repo,
		Validator: ballot.NewValidator(app.Repo, limiter, app.Clock, policy),
		Notifier:  app.Hub,
		Clock:     app.Clock,
		Metrics:   app.Metrics,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return app
}

// CreateTestPoll creates a poll through the controller and returns it.
// expiresIn of zero means the poll never expires.
func CreateTestPoll(t *testing.T, app *App, owner models.Identity, expiresIn time.Duration, options ...string) models.Poll {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Option A", "Option B"}
	}
	req := models.CreatePollRequest{Question: "Test poll?", Options: options}
	if expiresIn > 0 {
		exp := app.Clock.Now().Add(expiresIn)
		req.ExpiresAt = &exp
	}

	poll, err := app.Controller.Create(context.Background(), req, owner)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// CountVotes returns the number of stored vote rows for a poll
func CountVotes(t *testing.T, conn *sql.DB, pollID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// AuthHeaders returns request headers carrying a session token for user
func AuthHeaders(cfg cliparse.Config, user string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + auth.IssueSessionToken(user, cfg.SessionSalt),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
