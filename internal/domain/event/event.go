package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event raised by a draft
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	DraftID       string                 `json:"draft_id"`
	ProfileID     string                 `json:"profile_id"`
	InvoiceNumber string                 `json:"invoice_number"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp
func NewEvent(eventType Type, draftID, profileID, invoiceNumber string, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		DraftID:       draftID,
		ProfileID:     profileID,
		InvoiceNumber: invoiceNumber,
		Payload:       payload,
		Timestamp:     time.Now(),
	}
}

// WithPayload returns a new Event with an added payload key-value pair (immutable operation)
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	clone := *e
	clone.Payload = newPayload
	return &clone
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// Get retrieves a typed value from the payload. ok is false when the key is
// absent or holds a different type.
func Get[T any](e *Event, key string) (T, bool) {
	var zero T
	val, ok := e.Payload[key]
	if !ok {
		return zero, false
	}
	typed, ok := val.(T)
	return typed, ok
}
