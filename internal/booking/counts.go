// Package booking implements the owner-dashboard reservation pipeline:
// loading the monthly dashboard, reconciling per-date counts against the
// authoritative schedule endpoint, and shaping the result into calendar
// badges.
package booking

// Status is a reservation lifecycle state as reported by the platform API.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
	StatusCompleted Status = "completed"
)

// ValidStatus reports whether s is one of the known reservation states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusDeclined, StatusCompleted:
		return true
	}
	return false
}

// ReservationCounts tallies reservations by status for one schedule or
// one calendar date. The API is the source of truth; this layer only
// guarantees the fields stay non-negative under its own arithmetic.
type ReservationCounts struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Declined  int `json:"declined"`
	Completed int `json:"completed"`
}

// IsZero reports whether every counter is zero.
func (c ReservationCounts) IsZero() bool {
	return c == ReservationCounts{}
}

// Add accumulates other into c.
func (c *ReservationCounts) Add(other ReservationCounts) {
	c.Pending += other.Pending
	c.Confirmed += other.Confirmed
	c.Declined += other.Declined
	c.Completed += other.Completed
}

// StatusBadge is a render-only decoration for one calendar cell. It is
// always recomputed from ReservationCounts and never stored.
type StatusBadge struct {
	Status   Status `json:"status"`
	Count    int    `json:"count"`
	Nickname string `json:"nickname"`
}

// badgeNickname is a fixed display placeholder; the calendar widget
// requires the field but does not show it on aggregate badges.
const badgeNickname = "User"

// Badges converts counts into calendar badges, one per non-zero counter,
// in the fixed order pending, confirmed, declined, completed. A zero
// counter produces no badge at all: absence means "nothing to show".
func (c ReservationCounts) Badges() []StatusBadge {
	var badges []StatusBadge
	if c.Pending > 0 {
		badges = append(badges, StatusBadge{Status: StatusPending, Count: c.Pending, Nickname: badgeNickname})
	}
	if c.Confirmed > 0 {
		badges = append(badges, StatusBadge{Status: StatusConfirmed, Count: c.Confirmed, Nickname: badgeNickname})
	}
	if c.Declined > 0 {
		badges = append(badges, StatusBadge{Status: StatusDeclined, Count: c.Declined, Nickname: badgeNickname})
	}
	if c.Completed > 0 {
		badges = append(badges, StatusBadge{Status: StatusCompleted, Count: c.Completed, Nickname: badgeNickname})
	}
	return badges
}
