// Package reservations serves the owner's reservation management:
// listing individual requests per schedule and approving or declining
// them.
package reservations

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trailhop/gateway/internal/api/apiutil"
	"github.com/trailhop/gateway/internal/booking"
	"github.com/trailhop/gateway/internal/upstream"
)

const reservationQueryTimeout = 15 * time.Second

var (
	client   *upstream.Client
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(c *upstream.Client) {
	initOnce.Do(func() {
		client = c
	})
}

// HandleList serves
// GET /api/v1/my-activities/{id}/reservations?scheduleId=N&status=S.
// Status defaults to pending, matching the detail view's initial tab.
func HandleList(w http.ResponseWriter, r *http.Request) {
	if client == nil {
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	activityID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	scheduleID, err := strconv.ParseInt(r.URL.Query().Get("scheduleId"), 10, 64)
	if err != nil || scheduleID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid scheduleId")
		return
	}

	status := booking.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = booking.StatusPending
	}
	if !booking.ValidStatus(status) {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	details, err := client.Reservations(ctx, activityID, scheduleID, status)
	if err != nil {
		apiutil.WriteUpstreamError(w, r, err)
		return
	}
	if details == nil {
		details = []booking.ReservationDetail{}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, details); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write reservations response")
	}
}

type statusUpdateRequest struct {
	Status booking.Status `json:"status"`
}

// HandleStatusUpdate serves
// PATCH /api/v1/my-activities/{id}/reservations/{reservationId}. Only
// confirmed and declined are accepted; every other state transition
// belongs to the platform, not the owner.
func HandleStatusUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if client == nil {
		logger.Error().Msg("Reservation handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	activityID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	reservationID, ok := parseID(w, r, "reservationId")
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != booking.StatusConfirmed && req.Status != booking.StatusDeclined {
		apiutil.WriteError(w, http.StatusBadRequest, "status must be confirmed or declined")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reservationQueryTimeout)
	defer cancel()

	if err := client.UpdateReservationStatus(ctx, activityID, reservationID, req.Status); err != nil {
		apiutil.WriteUpstreamError(w, r, err)
		return
	}

	logger.Info().
		Int64("activity_id", activityID).
		Int64("reservation_id", reservationID).
		Str("status", string(req.Status)).
		Msg("Reservation status updated")

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]booking.Status{"status": req.Status}); err != nil {
		logger.Error().Err(err).Msg("Failed to write status response")
	}
}

func parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
