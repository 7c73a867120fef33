package export

import (
	"fmt"
	"time"

	"github.com/arkilian/clickgen/internal/table"
	"github.com/arkilian/clickgen/pkg/types"
)

var exportNow = time.Date(2024, 3, 7, 9, 5, 33, 0, time.UTC)

// sampleTable returns n events cycling through the three event types.
func sampleTable(n int) *table.Table {
	base := time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	events := make([]types.Event, 0, n)
	for i := 0; i < n; i++ {
		e := types.Event{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			UserID:      int64(i/4 + 1),
			SessionID:   fmt.Sprintf("session-%d", i/2),
			PageURL:     types.Pages[i%len(types.Pages)],
			ReferrerURL: types.Referrers[i%len(types.Referrers)],
		}
		switch i % 3 {
		case 0:
			e.EventType = types.EventPageView
			e.Details = types.PageViewDetails(i % 101)
		case 1:
			e.EventType = types.EventClick
			e.Details = types.ClickDetails(i%10 + 1)
		default:
			e.EventType = types.EventFormSubmit
			e.Details = types.FormSubmitDetails(i%5 + 1)
		}
		events = append(events, e)
	}
	return table.FromEvents(events)
}
