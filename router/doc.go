// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Poll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(ctrl, hub, registry, cfg)

# Endpoints

Operational:

	GET /health   - Liveness
	GET /metrics  - Prometheus scrape
	GET /         - Banner

Poll management (session token required except for reads):

	POST   /polls       - Create poll
	GET    /polls       - List the caller's polls
	GET    /polls/{id}  - Poll with tally
	PATCH  /polls/{id}  - Update (owner)
	DELETE /polls/{id}  - Delete (owner)

Voting and results:

	POST /polls/{id}/votes   - Cast a vote (token optional)
	GET  /polls/{id}/results - Tally only
	GET  /polls/{id}/live    - Websocket stream of the poll and tally
*/
package router
