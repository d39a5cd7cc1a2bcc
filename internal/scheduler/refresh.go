package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trailhop/gateway/internal/booking"
	"github.com/trailhop/gateway/internal/upstream"
)

const refreshJobTimeout = 2 * time.Minute

// RefreshDeps is the pipeline slice the promotion refresh job drives.
type RefreshDeps struct {
	Loader     *booking.Loader
	Reconciler *booking.Reconciler
	Cache      *booking.BadgeCache
	Watchlist  *booking.Watchlist
	WatchTTL   time.Duration

	// FallbackToken authenticates watches recorded without a caller
	// token. Optional; such watches run unauthenticated without it.
	FallbackToken string
}

// RegisterRefreshJob schedules periodic re-reconciliation of recently
// viewed calendar months. Confirmed reservations become completed
// purely by wall-clock time passing a schedule's end, so cached badges
// drift stale unless somebody re-derives them; the browser client got
// this for free on every navigation, a server has to do it on a timer.
func RegisterRefreshJob(svc *Service, cronExpr string, deps RefreshDeps) error {
	if deps.Loader == nil || deps.Reconciler == nil || deps.Cache == nil || deps.Watchlist == nil {
		return fmt.Errorf("refresh job requires the full pipeline")
	}

	jobName := "badge_refresh"
	jobLogger := log.With().
		Str("component", "badge_refresh_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := svc.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		watches := deps.Watchlist.Active(deps.WatchTTL)
		if len(watches) == 0 {
			return
		}

		for _, watch := range watches {
			watchLogger := jobLogger.With().
				Int64("activity_id", watch.ActivityID).
				Int("year", watch.Year).
				Int("month", watch.Month).
				Logger()
			watchCtx := watchLogger.WithContext(ctx)
			token := watch.Token
			if token == "" {
				token = deps.FallbackToken
			}
			if token != "" {
				watchCtx = upstream.ContextWithToken(watchCtx, token)
			}

			entries, err := deps.Loader.LoadMonth(watchCtx, watch.ActivityID, watch.Year, watch.Month)
			if err != nil {
				watchLogger.Warn().Err(err).Msg("Refresh load failed")
				continue
			}

			gen := deps.Cache.NextGeneration(watch.ActivityID)
			results := deps.Reconciler.ReconcileDates(watchCtx, watch.ActivityID, entries.Dates(), entries, gen)
			watchLogger.Debug().
				Int("dates", len(results)).
				Msg("Badges refreshed")
		}
	})
	return err
}
