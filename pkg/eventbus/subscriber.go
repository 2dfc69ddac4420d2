package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Subscriber delivers a gap-free event stream for one channel,
// combining replay-window catch-up with a live pub/sub tail. The
// subscribe-before-catch-up ordering mirrors tarsy's
// pkg/events.ConnectionManager.subscribe, which establishes the
// LISTEN before reading the catch-up query so that nothing published
// in between is lost; here the equivalent race is a pub/sub SUBSCRIBE
// raced against the replay ZRANGEBYSCORE read.
type Subscriber struct {
	rdb    redis.UniversalClient
	pub    *Publisher
	logger *slog.Logger
}

// NewSubscriber constructs a Subscriber sharing the Publisher's Redis
// client (so replay reads and live subscribes see the same data).
func NewSubscriber(rdb redis.UniversalClient, pub *Publisher) *Subscriber {
	return &Subscriber{rdb: rdb, pub: pub, logger: slog.With("component", "eventbus.subscriber")}
}

// Subscribe returns a channel of events for ch. If lastEventID is
// non-empty, the first events delivered are the replay-window events
// with ID > lastEventID (spec.md §8 scenario 4), followed by the live
// tail; otherwise only the live tail is delivered. The returned
// function must be called to release the underlying pub/sub
// connection.
func (s *Subscriber) Subscribe(ctx context.Context, ch Channel, lastEventID string) (<-chan Event, func(), error) {
	pubsub := s.rdb.Subscribe(ctx, ch.PubSubKey())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 64)
	stop := func() { _ = pubsub.Close() }

	go func() {
		defer close(out)

		lastSent := lastEventID
		if lastEventID != "" {
			replayed, err := s.pub.ReplayEvents(ctx, ch, lastEventID)
			if err != nil {
				s.logger.Warn("replay fetch failed, continuing with live tail only", "channel", ch.Key(), "error", err)
			}
			for _, ev := range replayed {
				if !s.sendOrDisconnect(ctx, ch, out, ev) {
					return
				}
				lastSent = ev.ID
			}
		}

		lastSentSeq := parseSeq(lastSent)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var w wireEvent
				if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
					s.logger.Warn("dropping unparseable live event", "channel", ch.Key(), "error", err)
					continue
				}
				if parseSeq(w.ID) <= lastSentSeq {
					// Already delivered via catch-up; the live
					// subscription and the replay read overlap by
					// design to avoid a gap, so the overlap is
					// deduplicated here instead.
					continue
				}
				ev := Event{ID: w.ID, Type: w.Type, Data: w.Data, CreatedAt: w.CreatedAt}
				if !s.sendOrDisconnect(ctx, ch, out, ev) {
					return
				}
				lastSentSeq = parseSeq(w.ID)
			}
		}
	}()

	return out, stop, nil
}

// sendOrDisconnect attempts a non-blocking send of ev to out. A full
// buffer means the subscriber is too slow to keep up; rather than block
// the publisher, the slow subscriber is disconnected with a terminal
// error event, per spec.md §4.1/§5 ("on overflow the slow subscriber is
// disconnected with an error event, never blocking the publisher").
// Returns false when the caller should stop forwarding events, either
// because ctx was cancelled or because of an overflow disconnect.
func (s *Subscriber) sendOrDisconnect(ctx context.Context, ch Channel, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	default:
	}

	s.logger.Warn("subscriber buffer overflow, disconnecting slow consumer", "channel", ch.Key())
	if errEv, err := NewEvent(EventError, ErrorPayload{Code: "overflow", Message: "subscriber too slow, disconnected"}); err == nil {
		// Blocking here only ties up this subscriber's own forwarding
		// goroutine, never the publisher; it waits for either buffer
		// room or the consumer going away so the terminal error frame
		// isn't itself dropped by the same overflow it reports.
		select {
		case out <- errEv:
		case <-ctx.Done():
		}
	}
	return false
}

func parseSeq(id string) int64 {
	if id == "" {
		return -1
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
