package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/trailhop/gateway/internal/booking"
)

// ReservationDashboard fetches the monthly coarse per-date counts for an
// owned activity. The month is zero-padded to two digits on the wire.
func (c *Client) ReservationDashboard(ctx context.Context, activityID int64, year, month int) ([]booking.DashboardDay, error) {
	query := url.Values{
		"year":  {strconv.Itoa(year)},
		"month": {fmt.Sprintf("%02d", month)},
	}

	var days []booking.DashboardDay
	path := fmt.Sprintf("/my-activities/%d/reservation-dashboard", activityID)
	if err := c.getJSON(ctx, path, query, &days); err != nil {
		return nil, fmt.Errorf("reservation dashboard: %w", err)
	}
	return days, nil
}

// reservedScheduleItem is the wire shape of one reserved-schedule row.
// Some deployments return the slot identifier as id, others as
// scheduleId; both decode here and normalize to a single identifier.
type reservedScheduleItem struct {
	ID         int64                      `json:"id"`
	ScheduleID int64                      `json:"scheduleId"`
	StartTime  string                     `json:"startTime"`
	EndTime    string                     `json:"endTime"`
	Count      *booking.ReservationCounts `json:"count"`
}

// ReservedSchedule fetches the authoritative per-schedule counts for one
// date of an owned activity.
func (c *Client) ReservedSchedule(ctx context.Context, activityID int64, date string) ([]booking.ScheduleSummary, error) {
	query := url.Values{"date": {date}}

	var items []reservedScheduleItem
	path := fmt.Sprintf("/my-activities/%d/reserved-schedule", activityID)
	if err := c.getJSON(ctx, path, query, &items); err != nil {
		return nil, fmt.Errorf("reserved schedule %s: %w", date, err)
	}

	summaries := make([]booking.ScheduleSummary, 0, len(items))
	for _, item := range items {
		id := item.ScheduleID
		if id == 0 {
			id = item.ID
		}
		summaries = append(summaries, booking.ScheduleSummary{
			ID:        id,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
			Counts:    item.Count,
		})
	}
	return summaries, nil
}

// Reservations lists the individual reservations for one schedule,
// filtered by status.
func (c *Client) Reservations(ctx context.Context, activityID, scheduleID int64, status booking.Status) ([]booking.ReservationDetail, error) {
	query := url.Values{
		"scheduleId": {strconv.FormatInt(scheduleID, 10)},
		"status":     {string(status)},
	}

	var result struct {
		Reservations []booking.ReservationDetail `json:"reservations"`
		TotalCount   int                         `json:"totalCount"`
	}
	path := fmt.Sprintf("/my-activities/%d/reservations", activityID)
	if err := c.getJSON(ctx, path, query, &result); err != nil {
		return nil, fmt.Errorf("reservations for schedule %d: %w", scheduleID, err)
	}
	return result.Reservations, nil
}

// UpdateReservationStatus approves or declines a single reservation.
func (c *Client) UpdateReservationStatus(ctx context.Context, activityID, reservationID int64, status booking.Status) error {
	payload := struct {
		Status booking.Status `json:"status"`
	}{Status: status}

	path := fmt.Sprintf("/my-activities/%d/reservations/%d", activityID, reservationID)
	if err := c.sendJSON(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("update reservation %d: %w", reservationID, err)
	}
	return nil
}

// Activity fetches the full listing record, used to seed the edit-form
// snapshot.
func (c *Client) Activity(ctx context.Context, activityID int64) (*booking.ActivityDetail, error) {
	var detail booking.ActivityDetail
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.getJSON(ctx, path, nil, &detail); err != nil {
		return nil, fmt.Errorf("activity %d: %w", activityID, err)
	}
	return &detail, nil
}

// UpdateActivity persists an edit diff for an owned activity.
func (c *Client) UpdateActivity(ctx context.Context, activityID int64, payload any) error {
	path := fmt.Sprintf("/my-activities/%d", activityID)
	if err := c.sendJSON(ctx, http.MethodPatch, path, payload, nil); err != nil {
		return fmt.Errorf("update activity %d: %w", activityID, err)
	}
	return nil
}
