// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pubsub

import (
	"context"
	"errors"
	"log/slog"
)

var ErrHubStopped = errors.New("live results hub stopped")

// Notifier is told whenever a poll's displayed state is stale
type Notifier interface {
	PollChanged(ctx context.Context, pollID string)
}

// Subscriber receives a signal on C after its poll changes. Signals
// coalesce: a subscriber that has not drained C sees one pending signal.
type Subscriber struct {
	PollID string
	C      chan struct{}
}

// Hub fans poll invalidations out to the subscribers of that poll
type Hub struct {
	subscribers map[string]map[*Subscriber]bool
	broadcast   chan string
	register    chan *Subscriber
	unregister  chan *Subscriber
	done        chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]bool),
		broadcast:   make(chan string, 256),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		done:        make(chan struct{}),
	}
}

// Run owns the subscriber map until ctx is done. Run must be called at
// most once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, subs := range h.subscribers {
				for s := range subs {
					close(s.C)
				}
			}
			h.subscribers = make(map[string]map[*Subscriber]bool)
			return

		case s := <-h.register:
			subs := h.subscribers[s.PollID]
			if subs == nil {
				subs = make(map[*Subscriber]bool)
				h.subscribers[s.PollID] = subs
			}
			subs[s] = true

		case s := <-h.unregister:
			subs := h.subscribers[s.PollID]
			if subs != nil && subs[s] {
				delete(subs, s)
				close(s.C)
				if len(subs) == 0 {
					delete(h.subscribers, s.PollID)
				}
			}

		case pollID := <-h.broadcast:
			for s := range h.subscribers[pollID] {
				select {
				case s.C <- struct{}{}:
				default:
					// already has a pending signal
				}
			}
		}
	}
}

// Subscribe registers interest in pollID. It fails if ctx ends or the hub
// has stopped.
func (h *Hub) Subscribe(ctx context.Context, pollID string) (*Subscriber, error) {
	s := &Subscriber{PollID: pollID, C: make(chan struct{}, 1)}
	select {
	case h.register <- s:
		return s, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unsubscribe removes s and closes its channel
func (h *Hub) Unsubscribe(ctx context.Context, s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	case <-ctx.Done():
	}
}

// PollChanged queues an invalidation without blocking the caller
func (h *Hub) PollChanged(ctx context.Context, pollID string) {
	select {
	case h.broadcast <- pollID:
	default:
		slog.Warn("live results hub is saturated, dropping invalidation", "poll_id", pollID)
	}
}

// Fanout notifies every wrapped Notifier in order
type Fanout []Notifier

func (f Fanout) PollChanged(ctx context.Context, pollID string) {
	for _, n := range f {
		n.PollChanged(ctx, pollID)
	}
}
