// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics exposes Prometheus collectors for voting and rate limiting.

	m := metrics.New(prometheus.DefaultRegisterer)
	limiter.WithObserver(m)

Collectors (namespace quickly_poll):

  - votes_accepted_total
  - votes_rejected_total{reason}  validation, not_found, expired, rate_limited, duplicate, storage
  - vote_duration_seconds
  - rate_limit_checks_total{outcome}  allowed, denied
  - polls_created_total
  - polls_deleted_total
*/
package metrics
