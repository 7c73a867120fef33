package simulate

import (
	"fmt"
	"io"
	"math"
	"time"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/pkg/types"
	"github.com/google/uuid"
)

// DefaultLookback is how far back from now session starts are drawn.
const DefaultLookback = 30 * 24 * time.Hour

// Counts holds the three generation volumes of a run.
type Counts struct {
	Users            int `json:"num_users" yaml:"num_users"`
	SessionsPerUser  int `json:"num_sessions_per_user" yaml:"num_sessions_per_user"`
	EventsPerSession int `json:"num_events_per_session" yaml:"num_events_per_session"`
}

// Total returns the number of events a run with these counts produces.
func (c Counts) Total() int {
	return c.Users * c.SessionsPerUser * c.EventsPerSession
}

// Validate rejects negative counts and counts whose product does not fit in an int.
func (c Counts) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"num_users", c.Users},
		{"num_sessions_per_user", c.SessionsPerUser},
		{"num_events_per_session", c.EventsPerSession},
	}
	for _, f := range fields {
		if f.value < 0 {
			return clickerr.NewValidationError(clickerr.CodeInvalidCount,
				fmt.Sprintf("%s must be >= 0, got %d", f.name, f.value)).WithDetails(map[string]interface{}{f.name: f.value})
		}
	}

	total := 1
	for _, f := range fields {
		if f.value != 0 && total > math.MaxInt/f.value {
			return clickerr.NewValidationError(clickerr.CodeInvalidCount,
				fmt.Sprintf("%d users x %d sessions x %d events overflows the event count",
					c.Users, c.SessionsPerUser, c.EventsPerSession))
		}
		total *= f.value
	}
	return nil
}

// Simulator drives the user, session and event loops.
type Simulator struct {
	src       Source
	gen       *Generator
	clock     func() time.Time
	lookback  time.Duration
	sessionID func() (string, error)
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock overrides the wall clock used to anchor the session window.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) { s.clock = clock }
}

// WithLookback overrides how far back session starts may fall.
func WithLookback(d time.Duration) Option {
	return func(s *Simulator) { s.lookback = d }
}

// WithSessionIDs overrides the session identifier source.
func WithSessionIDs(next func() (string, error)) Option {
	return func(s *Simulator) { s.sessionID = next }
}

// NewSimulator creates a simulator drawing from src. When src is also an
// io.Reader, session UUIDs are read from it so seeded runs are reproducible.
func NewSimulator(src Source, opts ...Option) *Simulator {
	s := &Simulator{
		src:      src,
		gen:      NewGenerator(src),
		clock:    time.Now,
		lookback: DefaultLookback,
	}
	if r, ok := src.(io.Reader); ok {
		s.sessionID = func() (string, error) {
			id, err := uuid.NewRandomFromReader(r)
			return id.String(), err
		}
	} else {
		s.sessionID = func() (string, error) {
			id, err := uuid.NewRandom()
			return id.String(), err
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run generates every event of the run in generation order: user ascending,
// then session creation order, then event order within the session.
func (s *Simulator) Run(c Counts) ([]types.Event, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	events := make([]types.Event, 0, c.Total())
	err := s.Visit(c, func(e types.Event) error {
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Visit generates the run's events and hands each to fn as it is created.
// An error from fn stops the run and is returned unchanged.
func (s *Simulator) Visit(c Counts, fn func(types.Event) error) error {
	if err := c.Validate(); err != nil {
		return err
	}

	// The window is anchored once per run.
	end := s.clock().Truncate(time.Second)
	start := end.Add(-s.lookback)

	for userID := int64(1); userID <= int64(c.Users); userID++ {
		for i := 0; i < c.SessionsPerUser; i++ {
			sessionID, err := s.sessionID()
			if err != nil {
				return clickerr.NewInternalError("failed to generate session id", err)
			}
			sessionStart, err := RandomTimestamp(s.src, start, end)
			if err != nil {
				return err
			}
			for j := 0; j < c.EventsPerSession; j++ {
				event, err := s.gen.Event(userID, sessionID, sessionStart)
				if err != nil {
					return err
				}
				if err := fn(event); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
