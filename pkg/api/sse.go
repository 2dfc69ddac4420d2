package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aldergate-legal/core/pkg/eventbus"
)

// streamSSE drives one SSE connection for ch: it subscribes (replay
// catch-up via the Last-Event-ID request header, followed by the live
// tail), then loops writing frames with pkg/eventbus's wire encoder
// until the client disconnects, the subscription ends (overflow
// disconnect), or a write fails.
func streamSSE(c *gin.Context, subscriber *eventbus.Subscriber, ch eventbus.Channel, heartbeat time.Duration) {
	lastEventID := c.GetHeader(eventbus.LastEventIDHeader)

	events, stop, err := subscriber.Subscribe(c.Request.Context(), ch, lastEventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer stop()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticks, stopHeartbeat := eventbus.Heartbeats(heartbeat)
	defer stopHeartbeat()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := eventbus.WriteFrame(c.Writer, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticks:
			if err := eventbus.WriteHeartbeat(c.Writer); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
