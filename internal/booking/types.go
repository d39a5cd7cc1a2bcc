package booking

import "context"

// DateLayout is the calendar-date key format used across the pipeline.
const DateLayout = "2006-01-02"

// ScheduleSummary identifies one bookable time slot on a date. The two
// identifier spellings the API uses (id vs scheduleId) are normalized to
// ID before a summary enters this package.
//
// Exactly one of Counts and Groups is populated: Counts on the
// authoritative reserved-schedule path, Groups on the dashboard fallback
// path, where each group is an already-aggregated per-date tally.
type ScheduleSummary struct {
	ID        int64              `json:"id"`
	StartTime string             `json:"startTime"`
	EndTime   string             `json:"endTime"`
	Counts    *ReservationCounts `json:"count,omitempty"`
	Groups    []ReservationCounts `json:"-"`
}

// DashboardDay is one entry of the monthly dashboard payload: a date and
// its coarse, already-summed counts.
type DashboardDay struct {
	Date   string            `json:"date"`
	Counts ReservationCounts `json:"reservations"`
}

// DashboardEntries maps a calendar date to the schedule summaries the
// monthly dashboard produced for it. Dates without reservations are
// simply absent. Entries are replaced wholesale on month or activity
// change, never partially mutated.
type DashboardEntries map[string][]ScheduleSummary

// ReservationDetail is one individual reservation, fetched per schedule
// for the owner's detail view.
type ReservationDetail struct {
	ID         int64  `json:"id"`
	Status     Status `json:"status"`
	HeadCount  int    `json:"headCount"`
	Nickname   string `json:"nickname"`
	ScheduleID int64  `json:"scheduleId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// SubImage is a persisted gallery image on an activity.
type SubImage struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"imageUrl"`
}

// ScheduleSlot is a persisted reservable slot on an activity.
type ScheduleSlot struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ActivityDetail is the owner-visible listing record, used to seed the
// edit-form snapshot.
type ActivityDetail struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"userId"`
	Title          string         `json:"title"`
	Category       string         `json:"category"`
	Description    string         `json:"description"`
	Price          int            `json:"price"`
	Address        string         `json:"address"`
	BannerImageURL string         `json:"bannerImageUrl"`
	SubImages      []SubImage     `json:"subImages"`
	Schedules      []ScheduleSlot `json:"schedules"`
}

// API is the slice of the upstream platform client this package needs.
type API interface {
	// ReservationDashboard returns the monthly coarse per-date counts.
	ReservationDashboard(ctx context.Context, activityID int64, year, month int) ([]DashboardDay, error)
	// ReservedSchedule returns the authoritative per-schedule counts for
	// one date.
	ReservedSchedule(ctx context.Context, activityID int64, date string) ([]ScheduleSummary, error)
}
