package editdiff

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSchedules means no complete new schedule row exists beyond
	// the reserved entry row.
	ErrNoSchedules = errors.New("at least one complete schedule is required")
	// ErrDuplicateSchedule means two rows share the same
	// (date, start, end) triple.
	ErrDuplicateSchedule = errors.New("duplicate schedule time slot")
	// ErrMissingStagedImage means a staged reference had no backing
	// image data.
	ErrMissingStagedImage = errors.New("staged image data missing")
)

// FieldError reports a required form field that is empty.
type FieldError struct {
	Field string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// Validate checks the edit-form preconditions. It must pass before any
// upload or update request is issued; a failure here means nothing has
// gone over the network.
func Validate(form Form) error {
	required := []struct {
		name  string
		empty bool
	}{
		{"title", form.Title == ""},
		{"category", form.Category == ""},
		{"description", form.Description == ""},
		{"price", form.Price <= 0},
		{"address", form.Address == ""},
		{"banner image", form.BannerImageURL == ""},
	}
	for _, field := range required {
		if field.empty {
			return FieldError{Field: field.name}
		}
	}

	rows := editableRows(form.Rows)

	complete := 0
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !row.complete() {
			continue
		}
		complete++
		triple := row.triple()
		if seen[triple] {
			return fmt.Errorf("%w: %s %s-%s", ErrDuplicateSchedule, row.Date, row.Start, row.End)
		}
		seen[triple] = true
	}
	if complete == 0 {
		return ErrNoSchedules
	}

	return nil
}
