// Package types provides the core data types for clickgen.
package types

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the textual form of Event.Timestamp in exported tables.
const TimestampLayout = "2006-01-02 15:04:05"

// EventType categorizes a simulated interaction.
type EventType string

const (
	EventPageView   EventType = "page_view"
	EventClick      EventType = "click"
	EventFormSubmit EventType = "form_submit"
)

// EventTypes lists every event type in selection order.
var EventTypes = []EventType{EventPageView, EventClick, EventFormSubmit}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventPageView, EventClick, EventFormSubmit:
		return true
	}
	return false
}

// Pages is the fixed set of page paths an event can land on.
var Pages = []string{
	"/home", "/about", "/products", "/products/item1", "/products/item2", "/contact", "/login", "/signup",
}

// Referrers is the fixed set of referrer origins.
var Referrers = []string{
	"https://www.google.com", "https://www.facebook.com", "https://www.twitter.com",
	"https://www.linkedin.com", "https://www.reddit.com", "https://www.instagram.com",
	"https://www.example.com",
}

// Event is a single simulated user interaction.
// Events are created by the simulator and never mutated afterwards.
type Event struct {
	// Timestamp is when the event occurred, truncated to the second
	Timestamp time.Time `json:"timestamp"`

	// UserID identifies the simulated user (1-based)
	UserID int64 `json:"user_id"`

	// SessionID is the UUID shared by all events of one session
	SessionID string `json:"session_id"`

	PageURL     string `json:"page_url"`
	ReferrerURL string `json:"referrer_url"`

	// EventType selects which detail payload is populated
	EventType EventType `json:"event_type"`

	// Details is the type-specific payload
	Details EventDetails `json:"event_details"`
}

// FormattedTimestamp returns the timestamp in TimestampLayout.
func (e Event) FormattedTimestamp() string {
	return e.Timestamp.Format(TimestampLayout)
}

// Record returns the event as a column name to value mapping.
func (e Event) Record() map[string]interface{} {
	return map[string]interface{}{
		"timestamp":     e.FormattedTimestamp(),
		"user_id":       e.UserID,
		"session_id":    e.SessionID,
		"page_url":      e.PageURL,
		"referrer_url":  e.ReferrerURL,
		"event_type":    string(e.EventType),
		"event_details": e.Details.Map(),
	}
}

// MarshalJSON encodes the event with its timestamp in TimestampLayout.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}
