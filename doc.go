// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Poll API server.

Quickly Poll is a simple single-choice polling service: owners create polls
with two to ten options and an optional expiry, anyone may vote once, and
results are tallied on every read and streamed to live viewers.

# Starting the Server

The only required setting is the session salt. SQLite is used by default:

	SESSION_SALT=dev go run .

With PostgreSQL and Redis:

	go run . -t postgres -d "postgres://..." --redis-url redis://localhost:6379/0

Settings may also live in a .env file in the working directory.

# Configuration

Required settings:

  - SESSION_SALT (--session-salt): Secret for session token signatures

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: local SQLite file)
  - REDIS_URL (--redis-url): Share live result updates across processes
  - VOTE_RATE_LIMIT (--vote-limit): Vote attempts per window (default: 5)
  - VOTE_RATE_WINDOW (--vote-window): Rate limit window (default: 60s)
  - RATE_LIMIT_SWEEP_INTERVAL (--sweep-interval): Bucket cleanup (default: 5m)

# Architecture

  - handlers: HTTP request handlers (polls, voting, results, live)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - controller: Poll lifecycle, the only writer of polls and votes
  - ballot: Ordered vote admission checks
  - ratelimit: Fixed-window limiter with a pluggable store
  - tally: Vote counting and percentages
  - auth: Identifiers, session tokens and ownership checks
  - db: Schema and SQL repository (SQLite and PostgreSQL)
  - pubsub: Live result invalidation hub and Redis relay
  - metrics: Prometheus collectors
  - models: Domain, request and response types
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
