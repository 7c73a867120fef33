package simulate

import (
	"fmt"
	"time"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/pkg/types"
)

// Session duration bounds in minutes.
const (
	MinSessionMinutes = 1
	MaxSessionMinutes = 30
)

// detailRule draws the type-specific payload for one event type.
type detailRule func(src Source) types.EventDetails

var detailRules = map[types.EventType]detailRule{
	types.EventPageView: func(src Source) types.EventDetails {
		return types.PageViewDetails(src.IntRange(0, 100))
	},
	types.EventClick: func(src Source) types.EventDetails {
		return types.ClickDetails(src.IntRange(1, 10))
	},
	types.EventFormSubmit: func(src Source) types.EventDetails {
		return types.FormSubmitDetails(src.IntRange(1, 5))
	},
}

var eventTypeNames = func() []string {
	names := make([]string, len(types.EventTypes))
	for i, t := range types.EventTypes {
		names[i] = string(t)
	}
	return names
}()

// Generator produces single events. The order of draws on the source is
// fixed: duration, timestamp offset, page, referrer, event type, details.
type Generator struct {
	src Source
}

// NewGenerator creates a generator drawing from src.
func NewGenerator(src Source) *Generator {
	return &Generator{src: src}
}

// Event generates one event for the given user and session.
func (g *Generator) Event(userID int64, sessionID string, sessionStart time.Time) (types.Event, error) {
	duration := time.Duration(g.src.IntRange(MinSessionMinutes, MaxSessionMinutes)) * time.Minute
	ts, err := RandomTimestamp(g.src, sessionStart, sessionStart.Add(duration))
	if err != nil {
		return types.Event{}, err
	}

	pageURL := g.src.Choice(types.Pages)
	referrerURL := g.src.Choice(types.Referrers)

	eventType := types.EventType(g.src.Choice(eventTypeNames))
	rule, ok := detailRules[eventType]
	if !ok {
		return types.Event{}, clickerr.NewInternalError(
			fmt.Sprintf("no detail rule for event type %q", eventType), types.ErrUnknownEventType)
	}

	return types.Event{
		Timestamp:   ts,
		UserID:      userID,
		SessionID:   sessionID,
		PageURL:     pageURL,
		ReferrerURL: referrerURL,
		EventType:   eventType,
		Details:     rule(g.src),
	}, nil
}
