// Package editdiff computes the update payload for an activity edit by
// comparing the current form state against the snapshot captured when
// the form was opened. Schedule edits are modeled as explicit operations
// and flattened to the API's delete+insert wire shape; persisted images
// that disappeared from the form become removals, staged images are
// uploaded before the diff is considered complete.
package editdiff

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/trailhop/gateway/internal/booking"
)

// ScheduleRow is one row of the edit form's schedule table. A zero ID
// marks a row that has never been persisted.
type ScheduleRow struct {
	ID    int64  `json:"id,omitempty"`
	Date  string `json:"date"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// complete reports whether the row carries a full date/start/end triple.
func (r ScheduleRow) complete() bool {
	return r.Date != "" && r.Start != "" && r.End != ""
}

func (r ScheduleRow) triple() string {
	return r.Date + "-" + r.Start + "-" + r.End
}

// Snapshot is the state of an activity when the edit form was opened.
type Snapshot struct {
	Title          string
	Category       string
	Description    string
	Price          int
	Address        string
	BannerImageURL string
	SubImages      []booking.SubImage
	Schedules      []ScheduleRow
}

// SnapshotFromActivity captures an upstream listing record as an edit
// snapshot.
func SnapshotFromActivity(detail *booking.ActivityDetail) Snapshot {
	snap := Snapshot{
		Title:          detail.Title,
		Category:       detail.Category,
		Description:    detail.Description,
		Price:          detail.Price,
		Address:        detail.Address,
		BannerImageURL: detail.BannerImageURL,
		SubImages:      detail.SubImages,
	}
	for _, slot := range detail.Schedules {
		snap.Schedules = append(snap.Schedules, ScheduleRow{
			ID:    slot.ID,
			Date:  slot.Date,
			Start: slot.StartTime,
			End:   slot.EndTime,
		})
	}
	return snap
}

// StagedImage is an image the user added in the form but which is not
// yet hosted by the platform.
type StagedImage struct {
	Filename string
	Data     io.Reader
}

// Form is the current edited state. Rows includes the reserved first
// entry row the form keeps for adding new slots; it never takes part in
// validation or diffing. SubImageURLs mixes hosted URLs with staged
// references; staged references resolve through StagedImages.
type Form struct {
	Title          string
	Category       string
	Description    string
	Price          int
	Address        string
	BannerImageURL string
	SubImageURLs   []string
	Rows           []ScheduleRow
	StagedImages   map[string]StagedImage
}

// stagedPrefixes mark image references that only exist client-side and
// must be uploaded before the update request is sent.
var stagedPrefixes = []string{"blob:", "staged:"}

func isStagedRef(ref string) bool {
	for _, prefix := range stagedPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

// Uploader pushes one staged image to the platform and returns its
// hosted URL.
type Uploader interface {
	UploadImage(ctx context.Context, filename string, data io.Reader) (string, error)
}

// SchedulePayload is one slot in the wire format the update endpoint
// expects.
type SchedulePayload struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// UpdatePayload is the body of the activity update request.
type UpdatePayload struct {
	Title               string            `json:"title"`
	Category            string            `json:"category"`
	Description         string            `json:"description"`
	Price               int               `json:"price"`
	Address             string            `json:"address"`
	BannerImageURL      string            `json:"bannerImageUrl"`
	SubImageIDsToRemove []int64           `json:"subImageIdsToRemove"`
	SubImageURLsToAdd   []string          `json:"subImageUrlsToAdd"`
	ScheduleIDsToRemove []int64           `json:"scheduleIdsToRemove"`
	SchedulesToAdd      []SchedulePayload `json:"schedulesToAdd"`
}

// Diff validates the form, uploads staged images, and computes the full
// update payload. Any upload failure aborts the diff: no partial update
// is ever produced.
func Diff(ctx context.Context, snap Snapshot, form Form, uploader Uploader) (*UpdatePayload, error) {
	if err := Validate(form); err != nil {
		return nil, err
	}

	bannerURL := form.BannerImageURL
	if isStagedRef(bannerURL) {
		staged, ok := form.StagedImages[bannerURL]
		if !ok {
			return nil, fmt.Errorf("%w: banner %s", ErrMissingStagedImage, bannerURL)
		}
		uploaded, err := uploader.UploadImage(ctx, staged.Filename, staged.Data)
		if err != nil {
			return nil, fmt.Errorf("upload banner image: %w", err)
		}
		bannerURL = uploaded
	}

	var urlsToAdd []string
	for _, ref := range form.SubImageURLs {
		if !isStagedRef(ref) {
			continue
		}
		staged, ok := form.StagedImages[ref]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingStagedImage, ref)
		}
		uploaded, err := uploader.UploadImage(ctx, staged.Filename, staged.Data)
		if err != nil {
			return nil, fmt.Errorf("upload sub image: %w", err)
		}
		urlsToAdd = append(urlsToAdd, uploaded)
	}

	payload := &UpdatePayload{
		Title:               form.Title,
		Category:            form.Category,
		Description:         form.Description,
		Price:               form.Price,
		Address:             form.Address,
		BannerImageURL:      bannerURL,
		SubImageIDsToRemove: removedSubImageIDs(snap.SubImages, form.SubImageURLs),
		SubImageURLsToAdd:   urlsToAdd,
	}

	for _, op := range ScheduleOps(snap.Schedules, editableRows(form.Rows)) {
		switch op.Kind {
		case OpRemove:
			payload.ScheduleIDsToRemove = append(payload.ScheduleIDsToRemove, op.ID)
		case OpAdd:
			payload.SchedulesToAdd = append(payload.SchedulesToAdd, SchedulePayload{
				Date:      op.Row.Date,
				StartTime: op.Row.Start,
				EndTime:   op.Row.End,
			})
		case OpReplace:
			// Edits are delete+insert on the wire, never in-place.
			payload.ScheduleIDsToRemove = append(payload.ScheduleIDsToRemove, op.ID)
			payload.SchedulesToAdd = append(payload.SchedulesToAdd, SchedulePayload{
				Date:      op.Row.Date,
				StartTime: op.Row.Start,
				EndTime:   op.Row.End,
			})
		}
	}

	return payload, nil
}

// editableRows strips the reserved first entry row.
func editableRows(rows []ScheduleRow) []ScheduleRow {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

// removedSubImageIDs returns the ids of server-known images whose URL no
// longer appears in the current list.
func removedSubImageIDs(persisted []booking.SubImage, current []string) []int64 {
	keep := make(map[string]bool, len(current))
	for _, url := range current {
		keep[url] = true
	}

	var removed []int64
	for _, img := range persisted {
		if !keep[img.ImageURL] {
			removed = append(removed, img.ID)
		}
	}
	return removed
}
