package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/domain/event"
)

const (
	eventBuffer       = 64
	heartbeatInterval = 15 * time.Second
)

// StreamEvents handles GET /api/v1/drafts/:id/events as a server-sent event stream.
// Events are dropped for a client that cannot keep up; the stream itself never
// blocks the publisher.
func (h *Handlers) StreamEvents(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	if h.services.Dispatcher == nil {
		fail(c, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	ch := make(chan *event.Event, eventBuffer)
	name := "sse." + uuid.NewString()
	h.services.Dispatcher.SubscribeAll(name, dispatcher.ForDraft(d.ID), func(ctx context.Context, evt *event.Event) error {
		select {
		case ch <- evt:
		default:
		}
		return nil
	})
	defer h.services.Dispatcher.UnsubscribeAll(name)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"draftId": d.ID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			c.SSEvent(evt.Type.String(), evt)
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC().Format(time.RFC3339)})
			c.Writer.Flush()
		}
	}
}
