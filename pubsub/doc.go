// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pubsub signals live result views that a poll changed.

# Hub

The Hub owns a map of poll id to subscribers inside its Run goroutine:

	hub := pubsub.NewHub()
	go hub.Run(ctx)

	sub, err := hub.Subscribe(ctx, pollID)
	defer hub.Unsubscribe(ctx, sub)
	for range sub.C {
		// recompute and push the tally
	}

PollChanged never blocks: if the hub's queue is full the signal is dropped
and logged. Signals to one subscriber coalesce into a single pending value.

# Redis

With REDIS_URL set, a RedisPublisher publishes every invalidation so viewers
connected to other server processes refresh too. Relay subscribes to the
same channel and feeds remote signals into the local hub.

	pub, err := pubsub.NewRedisPublisher(ctx, url)
	go pub.Relay(ctx, hub)
	notifier := pubsub.Fanout{hub, pub}
*/
package pubsub
