package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// wireEvent is the JSON shape stored in the replay sorted set and sent
// over pub/sub: the envelope plus its assigned ID, so a subscriber can
// reconstruct the SSE frame without a second round-trip.
type wireEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Publisher persists events to a per-channel replay window (a Redis
// sorted set keyed by monotonic ID) and fans them out live via
// pub/sub, following the persist-then-notify shape of tarsy's
// pkg/events.EventPublisher, adapted from Postgres LISTEN/NOTIFY to
// Redis, and from test_publisher.py's replay-by-sorted-set contract.
type Publisher struct {
	rdb          redis.UniversalClient
	replayWindow time.Duration
	logger       *slog.Logger
	metrics      *metrics.Registry
}

// NewPublisher constructs a Publisher. replayWindow is the event-replay
// window from configuration (default 300s per spec.md §6).
func NewPublisher(rdb redis.UniversalClient, replayWindow time.Duration) *Publisher {
	return &Publisher{rdb: rdb, replayWindow: replayWindow, logger: slog.With("component", "eventbus.publisher")}
}

// SetMetrics attaches a metrics.Registry so every Publish call is
// counted by channel scope and event type. Optional: a nil Publisher
// metrics field simply skips instrumentation, so this may be left
// uncalled in tests.
func (p *Publisher) SetMetrics(m *metrics.Registry) {
	p.metrics = m
}

// Publish assigns the event the next monotonic ID on ch, stores it in
// the replay window, and broadcasts it to live subscribers. The
// returned ID is strictly greater than any prior ID published on ch
// (spec.md §8 universal invariant), since it comes from a Redis INCR
// sequence scoped to the channel.
func (p *Publisher) Publish(ctx context.Context, ch Channel, ev Event) (string, error) {
	seq, err := p.rdb.Incr(ctx, "eventbus:seq:"+ch.Key()).Result()
	if err != nil {
		return "", ierrors.UpstreamTransient("redis", err)
	}
	ev.ID = strconv.FormatInt(seq, 10)

	wire := wireEvent{ID: ev.ID, Type: ev.Type, Data: ev.Data, CreatedAt: ev.CreatedAt}
	payload, err := json.Marshal(wire)
	if err != nil {
		return "", ierrors.Internal("marshal event payload", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.ZAdd(ctx, ch.ReplayKey(), redis.Z{Score: float64(seq), Member: payload})
	pipe.Expire(ctx, ch.ReplayKey(), p.replayWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", ierrors.UpstreamTransient("redis", err)
	}

	if err := p.rdb.Publish(ctx, ch.PubSubKey(), payload).Err(); err != nil {
		// Live fan-out is best-effort once the replay window holds the
		// event: a reconnecting subscriber still recovers it via
		// catch-up, so this is logged rather than returned.
		p.logger.Warn("publish to live channel failed", "channel", ch.Key(), "error", err)
	}

	p.metrics.ObservePublish(ch.Scope, string(ev.Type))
	return ev.ID, nil
}

// ReplayEvents returns every event published on ch with ID strictly
// greater than lastEventID, in ID order. An empty lastEventID returns
// the full replay window.
func (p *Publisher) ReplayEvents(ctx context.Context, ch Channel, lastEventID string) ([]Event, error) {
	min := "-inf"
	if lastEventID != "" {
		id, err := strconv.ParseInt(lastEventID, 10, 64)
		if err != nil {
			return nil, ierrors.Validation("last_event_id", "must be numeric")
		}
		min = fmt.Sprintf("(%d", id) // exclusive lower bound
	}

	members, err := p.rdb.ZRangeByScore(ctx, ch.ReplayKey(), &redis.ZRangeBy{Min: min, Max: "+inf"}).Result()
	if err != nil {
		return nil, ierrors.UpstreamTransient("redis", err)
	}

	events := make([]Event, 0, len(members))
	for _, m := range members {
		var w wireEvent
		if err := json.Unmarshal([]byte(m), &w); err != nil {
			p.logger.Warn("skipping unparseable replay entry", "channel", ch.Key(), "error", err)
			continue
		}
		events = append(events, Event{ID: w.ID, Type: w.Type, Data: w.Data, CreatedAt: w.CreatedAt})
	}
	return events, nil
}
