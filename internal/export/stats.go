package export

import (
	"time"

	"github.com/arkilian/clickgen/pkg/types"
)

// StatsTracker accumulates per-file statistics while rows are exported.
type StatsTracker struct {
	rowCount int64

	minUserID *int64
	maxUserID *int64

	minTimestamp *time.Time
	maxTimestamp *time.Time

	eventTypes map[types.EventType]int64
	sessions   map[string]struct{}
}

// NewStatsTracker creates a new statistics tracker.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{
		eventTypes: make(map[types.EventType]int64),
		sessions:   make(map[string]struct{}),
	}
}

// Update folds one event into the statistics.
func (s *StatsTracker) Update(e types.Event) {
	s.rowCount++

	if s.minUserID == nil || e.UserID < *s.minUserID {
		userID := e.UserID
		s.minUserID = &userID
	}
	if s.maxUserID == nil || e.UserID > *s.maxUserID {
		userID := e.UserID
		s.maxUserID = &userID
	}

	if s.minTimestamp == nil || e.Timestamp.Before(*s.minTimestamp) {
		ts := e.Timestamp
		s.minTimestamp = &ts
	}
	if s.maxTimestamp == nil || e.Timestamp.After(*s.maxTimestamp) {
		ts := e.Timestamp
		s.maxTimestamp = &ts
	}

	s.eventTypes[e.EventType]++
	s.sessions[e.SessionID] = struct{}{}
}

// Stats returns the accumulated statistics in sidecar form.
func (s *StatsTracker) Stats() FileStats {
	out := FileStats{
		RowCount:      s.rowCount,
		MinUserID:     s.minUserID,
		MaxUserID:     s.maxUserID,
		SessionCount:  int64(len(s.sessions)),
		EventTypeRows: make(map[string]int64, len(s.eventTypes)),
	}
	if s.minTimestamp != nil {
		v := s.minTimestamp.Format(types.TimestampLayout)
		out.MinTimestamp = &v
	}
	if s.maxTimestamp != nil {
		v := s.maxTimestamp.Format(types.TimestampLayout)
		out.MaxTimestamp = &v
	}
	for t, n := range s.eventTypes {
		out.EventTypeRows[string(t)] = n
	}
	return out
}

// RowCount returns the number of rows tracked.
func (s *StatsTracker) RowCount() int64 {
	return s.rowCount
}
