package simulate

import (
	"time"

	clickerr "github.com/arkilian/clickgen/internal/errors"
)

// RandomTimestamp returns an instant drawn uniformly, at whole-second
// granularity, from the inclusive window [start, end]. It fails with an
// INVALID_TIME_RANGE error when start is after end.
func RandomTimestamp(src Source, start, end time.Time) (time.Time, error) {
	if start.After(end) {
		return time.Time{}, clickerr.NewValidationError(clickerr.CodeInvalidTimeRange,
			"start must not be after end").WithDetails(map[string]interface{}{
			"start": start,
			"end":   end,
		})
	}
	seconds := int(end.Sub(start) / time.Second)
	return start.Add(time.Duration(src.IntRange(0, seconds)) * time.Second), nil
}
