// Package dashboard serves the owner calendar: monthly badge data
// produced by the load → reconcile → adapt pipeline, and the
// per-schedule drill-down for a single date.
package dashboard

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/trailhop/gateway/internal/api"
	"github.com/trailhop/gateway/internal/api/apiutil"
	"github.com/trailhop/gateway/internal/booking"
	"github.com/trailhop/gateway/internal/upstream"
)

const calendarQueryTimeout = 30 * time.Second

// Deps wires the pipeline into the handlers.
type Deps struct {
	Client     *upstream.Client
	Loader     *booking.Loader
	Reconciler *booking.Reconciler
	Cache      *booking.BadgeCache
	Watchlist  *booking.Watchlist
}

var (
	deps     Deps
	initOnce sync.Once
	flights  singleflight.Group
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(d Deps) {
	initOnce.Do(func() {
		deps = d
	})
}

// HandleCalendar serves GET /api/v1/my-activities/{id}/calendar. It
// loads the month's dashboard, reconciles every date, and returns the
// date-keyed badge lists.
func HandleCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if deps.Loader == nil {
		logger.Error().Msg("Dashboard handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	activityID, ok := parseActivityID(w, r)
	if !ok {
		return
	}
	year, month, err := parseYearMonth(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), calendarQueryTimeout)
	defer cancel()

	// Concurrent identical views share one reconciliation run, but only
	// when they carry the same credential: the flight runs under the
	// first caller's token, and the upstream's ownership check must see
	// every caller's own token. The hash keeps the credential out of the
	// flight table.
	token := api.BearerToken(r)
	tokenSum := sha256.Sum256([]byte(token))
	key := fmt.Sprintf("%d:%d-%02d:%x", activityID, year, month, tokenSum[:8])
	result, err, _ := flights.Do(key, func() (any, error) {
		return refreshCalendar(ctx, activityID, year, month)
	})
	if err != nil {
		apiutil.WriteUpstreamError(w, r, err)
		return
	}

	if deps.Watchlist != nil {
		deps.Watchlist.Touch(activityID, year, month, token)
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, result); err != nil {
		logger.Error().Err(err).Msg("Failed to write calendar response")
	}
}

// refreshCalendar runs the full pipeline for one activity month and
// returns the badge mapping. Shared with the background refresh job.
func refreshCalendar(ctx context.Context, activityID int64, year, month int) (map[string][]booking.StatusBadge, error) {
	entries, err := deps.Loader.LoadMonth(ctx, activityID, year, month)
	if err != nil {
		return nil, err
	}

	gen := deps.Cache.NextGeneration(activityID)
	deps.Reconciler.ReconcileDates(ctx, activityID, entries.Dates(), entries, gen)

	return booking.CalendarBadges(deps.Cache.Snapshot(activityID), entries), nil
}

// HandleReservedSchedule serves
// GET /api/v1/my-activities/{id}/reserved-schedule?date=YYYY-MM-DD.
func HandleReservedSchedule(w http.ResponseWriter, r *http.Request) {
	if deps.Client == nil {
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	activityID, ok := parseActivityID(w, r)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(booking.DateLayout, date); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), calendarQueryTimeout)
	defer cancel()

	summaries, err := deps.Client.ReservedSchedule(ctx, activityID, date)
	if err != nil {
		apiutil.WriteUpstreamError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, summaries); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write schedule response")
	}
}

func parseActivityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	activityID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || activityID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid activity id")
		return 0, false
	}
	return activityID, true
}

func parseYearMonth(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		return 0, 0, fmt.Errorf("invalid year")
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month")
	}
	return year, month, nil
}
