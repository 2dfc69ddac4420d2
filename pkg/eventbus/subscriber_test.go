package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReconnectionReplayYieldsExactlyTheMissedEvents(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	pub := NewPublisher(rdb, 300*time.Second)
	sub := NewSubscriber(rdb, pub)
	ch := ForConversation("tenant-a", "conv-1")

	e1, _ := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "1"})
	id1, err := pub.Publish(ctx, ch, e1)
	require.NoError(t, err)
	e2, _ := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "2"})
	_, err = pub.Publish(ctx, ch, e2)
	require.NoError(t, err)
	e3, _ := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "3"})
	_, err = pub.Publish(ctx, ch, e3)
	require.NoError(t, err)

	subCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out, stop, err := sub.Subscribe(subCtx, ch, id1)
	require.NoError(t, err)
	defer stop()

	first := <-out
	second := <-out
	require.Equal(t, "2", ContentDeltaText(t, first))
	require.Equal(t, "3", ContentDeltaText(t, second))
	require.Greater(t, parseSeq(first.ID), parseSeq(id1))
}

func TestSlowSubscriberIsDisconnectedOnOverflowInsteadOfBlocking(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	pub := NewPublisher(rdb, 300*time.Second)
	sub := NewSubscriber(rdb, pub)
	ch := ForConversation("tenant-a", "conv-1")

	// One more than the subscriber's buffered channel capacity, so the
	// replay catch-up alone forces an overflow before anything is read.
	const backlog = 65
	for i := 0; i < backlog; i++ {
		ev, _ := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "x"})
		_, err := pub.Publish(ctx, ch, ev)
		require.NoError(t, err)
	}

	subCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	out, stop, err := sub.Subscribe(subCtx, ch, "0")
	require.NoError(t, err)
	defer stop()

	// Give the forwarding goroutine time to run ahead and hit the full
	// buffer without this test ever draining it, mirroring a subscriber
	// too slow to keep up.
	time.Sleep(200 * time.Millisecond)

	var sawOverflowError bool
	var drained []Event
	for {
		select {
		case ev, ok := <-out:
			if !ok {
				require.True(t, sawOverflowError, "channel closed without an overflow error event; got %d events", len(drained))
				return
			}
			drained = append(drained, ev)
			if ev.Type == EventError {
				var p ErrorPayload
				require.NoError(t, json.Unmarshal(ev.Data, &p))
				require.Equal(t, "overflow", p.Code)
				sawOverflowError = true
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("subscriber was never disconnected after overflow; drained %d events", len(drained))
		}
	}
}

func TestSubscriberNeverSeesOtherTenantsEvents(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	pub := NewPublisher(rdb, 300*time.Second)
	sub := NewSubscriber(rdb, pub)

	chA := ForConversation("tenant-a", "resource-1")
	chB := ForConversation("tenant-b", "resource-1")

	subCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	out, stop, err := sub.Subscribe(subCtx, chB, "")
	require.NoError(t, err)
	defer stop()

	ev, _ := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "secret"})
	_, err = pub.Publish(ctx, chA, ev)
	require.NoError(t, err)

	select {
	case got, ok := <-out:
		if ok {
			t.Fatalf("tenant B subscriber unexpectedly received an event: %+v", got)
		}
	case <-time.After(300 * time.Millisecond):
		// expected: no event arrives within the window
	}
}
