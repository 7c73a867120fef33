package types

import "errors"

// Event decoding errors
var (
	// ErrUnknownEventType is returned when an event_type value is not recognized
	ErrUnknownEventType = errors.New("unknown event type")
)

// ParseEventType converts a string into an EventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.Valid() {
		return "", ErrUnknownEventType
	}
	return t, nil
}
