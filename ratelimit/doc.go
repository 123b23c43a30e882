// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit implements a fixed-window request counter.

# Checking a Request

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), clockwork.NewRealClock())
	res := limiter.Check("vote:alice", 5, time.Minute)
	if !res.Allowed {
		wait := res.RetryAfter(time.Now())
	}

The first request for a key (or the first after its window ended) opens a new
window of the given length with a count of one. Later requests in the window
increment the count until it reaches the maximum; after that requests are
denied with Remaining 0 and the original ResetAt.

The window is fixed, not sliding: a caller can spend a full budget just before
a boundary and another just after it.

# Stores

Buckets live behind the Store interface. MemoryStore guards its map with a
mutex so concurrent hits on one key never lose a count. Stores are owned by
the caller and injected, so tests build a fresh one per case.

# Eviction

MemoryStore never shrinks on its own. RunJanitor calls Sweep on an interval
to drop buckets whose window has passed:

	go limiter.RunJanitor(ctx, 5*time.Minute)
*/
package ratelimit
