package booking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock abstracts wall-clock time so promotion can be tested.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// endOfDayTime stands in for a schedule with no end time: it is treated
// as ending at the last minute of its date for promotion purposes.
const endOfDayTime = "23:59"

const promotionLayout = "2006-01-02 15:04"

// Reconciler derives the authoritative per-date reservation counts for a
// batch of calendar dates: it fetches per-schedule counts, falls back to
// the coarse dashboard aggregate when the authoritative endpoint has
// nothing, promotes confirmed reservations to completed once their
// schedule has ended, and publishes the result to the badge cache.
type Reconciler struct {
	api   API
	cache *BadgeCache
	clock Clock
	loc   *time.Location
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithClock overrides the wall clock used for status promotion.
func WithClock(clock Clock) ReconcilerOption {
	return func(r *Reconciler) { r.clock = clock }
}

// WithLocation sets the location schedule end times are interpreted in.
func WithLocation(loc *time.Location) ReconcilerOption {
	return func(r *Reconciler) { r.loc = loc }
}

// NewReconciler returns a Reconciler publishing into cache.
func NewReconciler(api API, cache *BadgeCache, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		api:   api,
		cache: cache,
		clock: realClock{},
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcileDates reconciles every date independently and concurrently and
// waits for the whole batch. A failure on one date never blocks or fails
// the others: failed dates are logged and skipped, successful dates are
// written to the cache under gen. Writes stamped with a generation that
// is no longer current are discarded by the cache.
//
// The returned mapping holds only the dates whose cache writes landed;
// a date discarded by the generation check is omitted just like a
// failed one.
func (r *Reconciler) ReconcileDates(ctx context.Context, activityID int64, dates []string, dashboard DashboardEntries, gen uint64) map[string]ReservationCounts {
	var (
		mu      sync.Mutex
		results = make(map[string]ReservationCounts, len(dates))
		wg      sync.WaitGroup
	)

	for _, date := range dates {
		wg.Add(1)
		go func(date string) {
			defer wg.Done()

			counts, err := r.reconcileDate(ctx, activityID, date, dashboard)
			if err != nil {
				// Degraded, not fatal: the calendar will fall back to the
				// coarse dashboard data for this date.
				log.Ctx(ctx).Warn().
					Err(err).
					Int64("activity_id", activityID).
					Str("date", date).
					Msg("Date reconciliation failed")
				return
			}

			if !r.cache.Put(activityID, date, counts, gen) {
				log.Ctx(ctx).Debug().
					Int64("activity_id", activityID).
					Str("date", date).
					Msg("Discarded stale reconciliation write")
				return
			}

			mu.Lock()
			results[date] = counts
			mu.Unlock()
		}(date)
	}

	wg.Wait()
	return results
}

// reconcileDate computes the counts for a single date.
func (r *Reconciler) reconcileDate(ctx context.Context, activityID int64, date string, dashboard DashboardEntries) (ReservationCounts, error) {
	schedules, err := r.api.ReservedSchedule(ctx, activityID, date)
	if err != nil {
		return ReservationCounts{}, err
	}

	var counts ReservationCounts
	if len(schedules) == 0 {
		// Authoritative endpoint had nothing: sum whatever nested group
		// tallies the dashboard produced for this date. No dashboard
		// entry either means the date stays all-zero.
		counts = aggregate(dashboard[date])
	} else {
		// Completed is never summed from the authoritative source; it
		// only ever arises from promotion below.
		for _, s := range schedules {
			if s.Counts == nil {
				continue
			}
			counts.Pending += s.Counts.Pending
			counts.Confirmed += s.Counts.Confirmed
			counts.Declined += s.Counts.Declined
		}
	}

	r.promote(date, schedules, dashboard[date], &counts)
	return counts, nil
}

// promote moves confirmed reservations into completed for every schedule
// whose end time has passed. On the authoritative path each schedule
// moves its own confirmed tally; on the dashboard fallback path the rows
// carry no per-slot counts, so the date aggregate moves wholesale the
// first time a finished slot is seen.
func (r *Reconciler) promote(date string, schedules, fallback []ScheduleSummary, counts *ReservationCounts) {
	toCheck := schedules
	if len(toCheck) == 0 {
		toCheck = fallback
	}

	now := r.clock.Now()
	for _, s := range toCheck {
		confirmed := counts.Confirmed
		if s.Counts != nil {
			confirmed = s.Counts.Confirmed
		}
		if confirmed <= 0 {
			continue
		}

		endTime := s.EndTime
		if endTime == "" {
			endTime = endOfDayTime
		}
		endsAt, err := time.ParseInLocation(promotionLayout, date+" "+endTime, r.loc)
		if err != nil {
			continue
		}

		if now.After(endsAt) {
			counts.Confirmed -= confirmed
			counts.Completed += confirmed
		}
	}
}
