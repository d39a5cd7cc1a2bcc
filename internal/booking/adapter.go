package booking

// CalendarBadges shapes reconciled counts into the date-keyed badge lists
// the calendar renders. It is a pure function of its inputs.
//
// When cached reconciliation results exist they are the sole source:
// every cached date is converted and the raw dashboard data is ignored
// entirely. Only when the cache is empty (reconciliation has not yet
// produced anything for this activity) are badges aggregated straight
// out of the dashboard entries, with the same nested-group summation the
// reconciler's fallback uses.
func CalendarBadges(cached map[string]ReservationCounts, dashboard DashboardEntries) map[string][]StatusBadge {
	badges := make(map[string][]StatusBadge)

	if len(cached) > 0 {
		for date, counts := range cached {
			badges[date] = counts.Badges()
		}
		return badges
	}

	for date, summaries := range dashboard {
		badges[date] = aggregate(summaries).Badges()
	}
	return badges
}
