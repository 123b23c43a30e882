// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Poll API.

# Handler Types

Each handler is a thin struct over the poll controller and config:

  - PollHandler: create, list, read, update and delete polls
  - VotingHandler: vote casting
  - ResultsHandler: tallies and the live results websocket

	pollHandler := handlers.NewPollHandler(ctrl, cfg)

# Identity

Callers authenticate with a session token:

	Authorization: Bearer <user>.<signature>

A request without the header is anonymous. Anonymous callers may read
polls and vote, but cannot create, list, edit or delete. A malformed or
forged token is rejected with 401 rather than treated as anonymous.

# Errors

Every failure is a JSON body {"error": "..."} with a message safe to show
users. StatusFor maps error kinds to codes:

	validation         400
	unauthorized       401
	forbidden          403  (authenticated, not the owner)
	not found          404
	duplicate vote     409
	expired            410
	rate limited       429  (with Retry-After)
	storage            500

# Live Results

GET /polls/{id}/live upgrades to a websocket and sends the poll with its
tally immediately and after each change. Unknown polls get a plain 404
before the upgrade. The socket is closed normally when the poll is deleted.
*/
package handlers
