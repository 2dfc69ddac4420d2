package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestPublishIDsAreStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	pub := NewPublisher(rdb, 300*time.Second)
	ch := ForConversation("tenant-a", "conv-1")

	ev1, err := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "a"})
	require.NoError(t, err)
	id1, err := pub.Publish(ctx, ch, ev1)
	require.NoError(t, err)

	ev2, err := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "b"})
	require.NoError(t, err)
	id2, err := pub.Publish(ctx, ch, ev2)
	require.NoError(t, err)

	require.NotEqual(t, id1, id2)
	require.Greater(t, parseSeq(id2), parseSeq(id1))
}

func TestReplayEventsReturnsOnlyNewerEvents(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	pub := NewPublisher(rdb, 300*time.Second)
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

	replayed, err := pub.ReplayEvents(ctx, ch, id1)
	require.NoError(t, err)
	require.Len(t, replayed, 2)
	require.Equal(t, ContentDeltaText(t, replayed[0]), "2")
	require.Equal(t, ContentDeltaText(t, replayed[1]), "3")
}

func TestCrossTenantChannelsNeverCollide(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)
	pub := NewPublisher(rdb, 300*time.Second)

	chA := ForConversation("tenant-a", "shared-resource")
	chB := ForConversation("tenant-b", "shared-resource")

	ev, _ := NewEvent(EventContentDelta, ContentDeltaPayload{Text: "secret"})
	_, err := pub.Publish(ctx, chA, ev)
	require.NoError(t, err)

	replayed, err := pub.ReplayEvents(ctx, chB, "")
	require.NoError(t, err)
	require.Empty(t, replayed)
}

// ContentDeltaText decodes a ContentDeltaPayload and returns its text,
// failing the test on any decode error.
func ContentDeltaText(t *testing.T, ev Event) string {
	t.Helper()
	var p ContentDeltaPayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	return p.Text
}
