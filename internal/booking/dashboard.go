package booking

import (
	"context"
	"fmt"
)

// Loader fetches the monthly reservation dashboard and shapes it into
// date-keyed entries for the calendar pipeline.
type Loader struct {
	api API
}

// NewLoader returns a Loader backed by the given upstream client.
func NewLoader(api API) *Loader {
	return &Loader{api: api}
}

// LoadMonth fetches the dashboard for (year, month) and returns a
// date-keyed mapping. Days the API omits stay absent from the result; no
// zero entries are synthesized for empty days. On error the result is
// nil, never a partial mapping.
func (l *Loader) LoadMonth(ctx context.Context, activityID int64, year, month int) (DashboardEntries, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("load month: month %d out of range", month)
	}

	days, err := l.api.ReservationDashboard(ctx, activityID, year, month)
	if err != nil {
		return nil, fmt.Errorf("load month %d-%02d: %w", year, month, err)
	}

	entries := make(DashboardEntries, len(days))
	for _, day := range days {
		if day.Date == "" {
			continue
		}
		// The dashboard carries no slot times, only a per-date aggregate.
		// Preserve it as a single synthetic summary so the fallback path
		// can re-sum it later.
		entries[day.Date] = []ScheduleSummary{
			{
				StartTime: "",
				EndTime:   "",
				Groups:    []ReservationCounts{day.Counts},
			},
		}
	}
	return entries, nil
}

// Dates returns the entry keys in unspecified order.
func (e DashboardEntries) Dates() []string {
	dates := make([]string, 0, len(e))
	for date := range e {
		dates = append(dates, date)
	}
	return dates
}

// aggregate sums every nested group tally under one date's summaries.
func aggregate(summaries []ScheduleSummary) ReservationCounts {
	var counts ReservationCounts
	for _, s := range summaries {
		for _, g := range s.Groups {
			counts.Add(g)
		}
	}
	return counts
}
