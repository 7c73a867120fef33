package simulate

import (
	"testing"
	"time"

	clickerr "github.com/arkilian/clickgen/internal/errors"
	"github.com/arkilian/clickgen/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow  = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	fixedUUID = uuid.MustParse("12345678123456781234567812345678").String()
)

func fixedClock() time.Time { return fixedNow }

func newScriptedSimulator() *Simulator {
	src := &cycleSource{
		choices: []string{"/home", "https://www.google.com", "page_view"},
		ints:    []int{10, 20, 30},
	}
	return NewSimulator(src, WithClock(fixedClock), WithSessionIDs(fixedIDs(fixedUUID)))
}

func TestSimulator_SingleEvent(t *testing.T) {
	events, err := newScriptedSimulator().Run(Counts{Users: 1, SessionsPerUser: 1, EventsPerSession: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "/home", e.PageURL)
	assert.Equal(t, "https://www.google.com", e.ReferrerURL)
	assert.Equal(t, types.EventPageView, e.EventType)
	assert.Equal(t, map[string]interface{}{"scroll_depth": 10}, e.Details.Map())

	// session start = now - 30d + 10s, event = session start + 30s
	sessionStart := fixedNow.Add(-DefaultLookback).Add(10 * time.Second)
	assert.Equal(t, sessionStart.Add(30*time.Second), e.Timestamp)
	assert.Equal(t, "2022-12-03 00:00:40", e.FormattedTimestamp())
}

func TestSimulator_ZeroCounts(t *testing.T) {
	for _, c := range []Counts{
		{Users: 0, SessionsPerUser: 1, EventsPerSession: 1},
		{Users: 1, SessionsPerUser: 0, EventsPerSession: 1},
		{Users: 1, SessionsPerUser: 1, EventsPerSession: 0},
	} {
		events, err := newScriptedSimulator().Run(c)
		require.NoError(t, err)
		assert.Empty(t, events)
	}
}

func TestSimulator_NegativeCounts(t *testing.T) {
	_, err := newScriptedSimulator().Run(Counts{Users: -1, SessionsPerUser: 1, EventsPerSession: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, clickerr.ErrInvalidCount)
	assert.Equal(t, clickerr.ErrCategoryValidation, clickerr.GetCategory(err))
}

func TestSimulator_LargeDataset(t *testing.T) {
	events, err := newScriptedSimulator().Run(Counts{Users: 20, SessionsPerUser: 10, EventsPerSession: 5})
	require.NoError(t, err)
	assert.Len(t, events, 1000)
	assert.Equal(t, int64(1), events[5].UserID)
	assert.Equal(t, fixedUUID, events[5].SessionID)
}

func TestSimulator_Ordering(t *testing.T) {
	sim := NewSimulator(NewRandSource(99), WithClock(fixedClock))
	c := Counts{Users: 4, SessionsPerUser: 3, EventsPerSession: 6}
	events, err := sim.Run(c)
	require.NoError(t, err)
	require.Len(t, events, c.Total())

	windowStart := fixedNow.Add(-DefaultLookback)
	seen := map[string]bool{}
	for i, e := range events {
		user := int64(i/(c.SessionsPerUser*c.EventsPerSession)) + 1
		assert.Equal(t, user, e.UserID)

		sessionFirst := events[i-i%c.EventsPerSession]
		assert.Equal(t, sessionFirst.SessionID, e.SessionID)
		assert.Equal(t, sessionFirst.UserID, e.UserID)
		if i%c.EventsPerSession == 0 {
			assert.False(t, seen[e.SessionID], "session ids are unique per session")
			seen[e.SessionID] = true
			_, err := uuid.Parse(e.SessionID)
			assert.NoError(t, err)
		}

		assert.False(t, e.Timestamp.Before(windowStart))
		assert.False(t, e.Timestamp.After(fixedNow.Add(MaxSessionMinutes*time.Minute)))
	}
	assert.Len(t, seen, c.Users*c.SessionsPerUser)
}

func TestSimulator_SessionSpan(t *testing.T) {
	events, err := NewSimulator(NewRandSource(5)).Run(Counts{Users: 3, SessionsPerUser: 4, EventsPerSession: 25})
	require.NoError(t, err)

	bySession := map[string][]time.Time{}
	for _, e := range events {
		bySession[e.SessionID] = append(bySession[e.SessionID], e.Timestamp)
	}
	for id, ts := range bySession {
		lo, hi := ts[0], ts[0]
		for _, v := range ts {
			if v.Before(lo) {
				lo = v
			}
			if v.After(hi) {
				hi = v
			}
		}
		assert.LessOrEqual(t, hi.Sub(lo), MaxSessionMinutes*time.Minute, "session %s", id)
	}
}

func TestSimulator_SeededRunsRepeat(t *testing.T) {
	c := Counts{Users: 2, SessionsPerUser: 2, EventsPerSession: 3}
	a, err := NewSimulator(NewRandSource(11), WithClock(fixedClock)).Run(c)
	require.NoError(t, err)
	b, err := NewSimulator(NewRandSource(11), WithClock(fixedClock)).Run(c)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSimulator_VisitStopsOnCallbackError(t *testing.T) {
	stop := clickerr.NewInternalError("stop", nil)
	n := 0
	err := newScriptedSimulator().Visit(Counts{Users: 5, SessionsPerUser: 5, EventsPerSession: 5}, func(types.Event) error {
		n++
		if n == 3 {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 3, n)
}

func TestCounts_Total(t *testing.T) {
	assert.Equal(t, 240000, Counts{Users: 1000, SessionsPerUser: 12, EventsPerSession: 20}.Total())
}

func TestCounts_ValidateOverflow(t *testing.T) {
	huge := Counts{Users: 1 << 62, SessionsPerUser: 2, EventsPerSession: 1}
	err := huge.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, clickerr.ErrInvalidCount)

	_, err = newScriptedSimulator().Run(huge)
	assert.ErrorIs(t, err, clickerr.ErrInvalidCount)

	// A zero factor keeps the product at zero however large the rest are.
	assert.NoError(t, Counts{Users: 0, SessionsPerUser: 1 << 62, EventsPerSession: 1 << 62}.Validate())
	assert.NoError(t, Counts{Users: 1 << 31, SessionsPerUser: 1 << 31, EventsPerSession: 1}.Validate())
}
