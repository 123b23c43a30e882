// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pubsub

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) (*Hub, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, ctx
}

func waitSignal(t *testing.T, s *Subscriber) {
	t.Helper()
	select {
	case _, ok := <-s.C:
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for invalidation")
	}
}

func TestHub_DeliversToPollSubscribers(t *testing.T) {
	hub, ctx := startHub(t)

	a1, _ := hub.Subscribe(ctx, "poll-a")
	a2, _ := hub.Subscribe(ctx, "poll-a")
	b, _ := hub.Subscribe(ctx, "poll-b")

	hub.PollChanged(ctx, "poll-a")

	waitSignal(t, a1)
	waitSignal(t, a2)

	select {
	case <-b.C:
		t.Error("subscriber of another poll was signalled")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SignalsCoalesce(t *testing.T) {
	hub, ctx := startHub(t)
	s, _ := hub.Subscribe(ctx, "poll")

	for i := 0; i < 10; i++ {
		hub.PollChanged(ctx, "poll")
	}
	waitSignal(t, s)

	// Give the hub time to process the rest of the queue
	time.Sleep(50 * time.Millisecond)
	pending := len(s.C)
	if pending > 1 {
		t.Errorf("pending signals = %d, want at most 1", pending)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub, ctx := startHub(t)
	s, _ := hub.Subscribe(ctx, "poll")

	hub.Unsubscribe(ctx, s)

	select {
	case _, ok := <-s.C:
		if ok {
			t.Error("expected closed channel, got signal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Unsubscribe")
	}
}

func TestHub_PollChangedNeverBlocks(t *testing.T) {
	// Hub not running: the queue fills and further signals are dropped
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.PollChanged(context.Background(), "poll")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PollChanged blocked on a stopped hub")
	}
}

func TestHub_SubscribeHonoursContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := hub.Subscribe(ctx, "poll"); err == nil {
		t.Error("expected error subscribing with cancelled context and no running hub")
	}
}

type recordingNotifier struct {
	ids []string
}

func (r *recordingNotifier) PollChanged(ctx context.Context, pollID string) {
	r.ids = append(r.ids, pollID)
}

func TestFanout(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Fanout{a, b}.PollChanged(context.Background(), "p1")

	if len(a.ids) != 1 || len(b.ids) != 1 || a.ids[0] != "p1" {
		t.Errorf("fanout delivered a=%v b=%v", a.ids, b.ids)
	}
}
