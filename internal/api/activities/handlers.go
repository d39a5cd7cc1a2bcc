// Package activities serves the owner's listing edit flow: the current
// form state arrives as multipart (a JSON form part plus any staged
// image files), gets diffed against the live listing, and the resulting
// update is pushed upstream.
package activities

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trailhop/gateway/internal/api/apiutil"
	"github.com/trailhop/gateway/internal/editdiff"
	"github.com/trailhop/gateway/internal/upstream"
)

const (
	updateTimeout   = 60 * time.Second
	maxUploadMemory = 32 << 20
	formPartName    = "form"
)

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

// editFormRequest is the JSON part of the multipart submission. Staged
// image references (blob: or staged: scheme) must have a matching file
// part under the same field name.
type editFormRequest struct {
	Title          string                 `json:"title"`
	Category       string                 `json:"category"`
	Description    string                 `json:"description"`
	Price          int                    `json:"price"`
	Address        string                 `json:"address"`
	BannerImageURL string                 `json:"bannerImageUrl"`
	SubImageURLs   []string               `json:"subImageUrls"`
	Schedules      []editdiff.ScheduleRow `json:"schedules"`
}

// HandleUpdate serves PATCH /api/v1/my-activities/{id}.
func HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if client == nil {
		logger.Error().Msg("Activity handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	activityID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || activityID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	form, closeFiles, err := decodeEditForm(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer closeFiles()

	ctx, cancel := context.WithTimeout(r.Context(), updateTimeout)
	defer cancel()

	detail, err := client.Activity(ctx, activityID)
	if err != nil {
		apiutil.WriteUpstreamError(w, r, err)
		return
	}

	payload, err := editdiff.Diff(ctx, editdiff.SnapshotFromActivity(detail), form, client)
	if err != nil {
		writeDiffError(w, r, err)
		return
	}

	if err := client.UpdateActivity(ctx, activityID, payload); err != nil {
		apiutil.WriteUpstreamError(w, r, err)
		return
	}

	logger.Info().
		Int64("activity_id", activityID).
		Int("schedules_removed", len(payload.ScheduleIDsToRemove)).
		Int("schedules_added", len(payload.SchedulesToAdd)).
		Int("images_removed", len(payload.SubImageIDsToRemove)).
		Int("images_added", len(payload.SubImageURLsToAdd)).
		Msg("Activity updated")

	if err := apiutil.WriteJSON(w, http.StatusOK, payload); err != nil {
		logger.Error().Err(err).Msg("Failed to write update response")
	}
}

// decodeEditForm parses the multipart submission into an editdiff form.
// The returned closer releases any opened file parts.
func decodeEditForm(r *http.Request) (editdiff.Form, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return editdiff.Form{}, noop, errors.New("request must be multipart form data")
	}

	raw := r.FormValue(formPartName)
	if raw == "" {
		return editdiff.Form{}, noop, errors.New("missing form part")
	}

	var req editFormRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return editdiff.Form{}, noop, errors.New("invalid form JSON")
	}

	form := editdiff.Form{
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		Price:          req.Price,
		Address:        req.Address,
		BannerImageURL: req.BannerImageURL,
		SubImageURLs:   req.SubImageURLs,
		Rows:           req.Schedules,
		StagedImages:   make(map[string]editdiff.StagedImage),
	}

	var opened []multipart.File
	closeFiles := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			file, err := headers[0].Open()
			if err != nil {
				closeFiles()
				return editdiff.Form{}, noop, errors.New("unreadable image part " + field)
			}
			opened = append(opened, file)
			form.StagedImages[field] = editdiff.StagedImage{
				Filename: headers[0].Filename,
				Data:     file,
			}
		}
	}

	return form, closeFiles, nil
}

// writeDiffError maps edit-diff failures: validation problems are the
// caller's, upload failures are the upstream's.
func writeDiffError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr editdiff.FieldError
	switch {
	case errors.As(err, &fieldErr),
		errors.Is(err, editdiff.ErrNoSchedules),
		errors.Is(err, editdiff.ErrDuplicateSchedule),
		errors.Is(err, editdiff.ErrMissingStagedImage):
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		apiutil.WriteUpstreamError(w, r, err)
	}
}
