package dispatcher

import (
	"context"

	"github.com/garyjia/invoxis/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// Filter decides whether a wildcard subscriber receives an event
type Filter func(evt *event.Event) bool

// ForDraft returns a filter that matches events raised by one draft
func ForDraft(draftID string) Filter {
	return func(evt *event.Event) bool {
		return evt.DraftID == draftID
	}
}

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Filter      Filter
	Description string
}
