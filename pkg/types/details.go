package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventDetails is a tagged variant keyed by event type. Exactly one of
// the payload fields is meaningful, selected by Kind.
type EventDetails struct {
	Kind EventType

	// ScrollDepth is the percentage scrolled for page_view (0-100)
	ScrollDepth int

	// ElementID is the clicked element for click ("button_N")
	ElementID string

	// FormID is the submitted form for form_submit ("form_N")
	FormID string
}

// PageViewDetails builds the payload of a page_view event.
func PageViewDetails(scrollDepth int) EventDetails {
	return EventDetails{Kind: EventPageView, ScrollDepth: scrollDepth}
}

// ClickDetails builds the payload of a click event on button n.
func ClickDetails(n int) EventDetails {
	return EventDetails{Kind: EventClick, ElementID: "button_" + strconv.Itoa(n)}
}

// FormSubmitDetails builds the payload of a form_submit event on form n.
func FormSubmitDetails(n int) EventDetails {
	return EventDetails{Kind: EventFormSubmit, FormID: "form_" + strconv.Itoa(n)}
}

// Map renders the payload as its single-key mapping.
func (d EventDetails) Map() map[string]interface{} {
	switch d.Kind {
	case EventPageView:
		return map[string]interface{}{"scroll_depth": d.ScrollDepth}
	case EventClick:
		return map[string]interface{}{"element_id": d.ElementID}
	case EventFormSubmit:
		return map[string]interface{}{"form_id": d.FormID}
	}
	return map[string]interface{}{}
}

// String renders the payload in a compact mapping form, e.g. {'scroll_depth': 43}.
func (d EventDetails) String() string {
	switch d.Kind {
	case EventPageView:
		return fmt.Sprintf("{'scroll_depth': %d}", d.ScrollDepth)
	case EventClick:
		return fmt.Sprintf("{'element_id': '%s'}", d.ElementID)
	case EventFormSubmit:
		return fmt.Sprintf("{'form_id': '%s'}", d.FormID)
	}
	return "{}"
}

// MarshalJSON encodes the payload as its single-key mapping.
func (d EventDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON decodes a single-key mapping and infers Kind from the key.
func (d *EventDetails) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("event details: expected exactly one key, got %d", len(raw))
	}

	var out EventDetails
	for key, value := range raw {
		switch key {
		case "scroll_depth":
			out.Kind = EventPageView
			if err := json.Unmarshal(value, &out.ScrollDepth); err != nil {
				return fmt.Errorf("event details: scroll_depth: %w", err)
			}
		case "element_id":
			out.Kind = EventClick
			if err := json.Unmarshal(value, &out.ElementID); err != nil {
				return fmt.Errorf("event details: element_id: %w", err)
			}
		case "form_id":
			out.Kind = EventFormSubmit
			if err := json.Unmarshal(value, &out.FormID); err != nil {
				return fmt.Errorf("event details: form_id: %w", err)
			}
		default:
			return fmt.Errorf("event details: unknown key %q", key)
		}
	}
	*d = out
	return nil
}

// Valid reports whether the populated payload matches Kind and its value range.
func (d EventDetails) Valid() bool {
	switch d.Kind {
	case EventPageView:
		return d.ScrollDepth >= 0 && d.ScrollDepth <= 100 && d.ElementID == "" && d.FormID == ""
	case EventClick:
		n, ok := suffixNumber(d.ElementID, "button_")
		return ok && n >= 1 && n <= 10 && d.ScrollDepth == 0 && d.FormID == ""
	case EventFormSubmit:
		n, ok := suffixNumber(d.FormID, "form_")
		return ok && n >= 1 && n <= 5 && d.ScrollDepth == 0 && d.ElementID == ""
	}
	return false
}

func suffixNumber(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}
