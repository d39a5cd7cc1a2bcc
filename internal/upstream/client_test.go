package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trailhop/gateway/internal/booking"
)

func TestReservationDashboardPadsMonth(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date":"2025-03-01","reservations":{"pending":1,"confirmed":0,"declined":0,"completed":0}}]`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	ctx := ContextWithToken(context.Background(), "tok-123")

	days, err := client.ReservationDashboard(ctx, 42, 2025, 3)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if gotPath != "/my-activities/42/reservation-dashboard" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "month=03") {
		t.Errorf("month not zero-padded: %q", gotQuery)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if len(days) != 1 || days[0].Counts.Pending != 1 {
		t.Errorf("unexpected decode: %+v", days)
	}
}

func TestReservedScheduleNormalizesIdentifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"scheduleId": 9, "startTime": "10:00", "endTime": "11:00", "count": {"pending":1,"confirmed":2,"declined":0,"completed":0}},
			{"id": 4, "startTime": "12:00", "endTime": "13:00", "count": {"pending":0,"confirmed":0,"declined":1,"completed":0}}
		]`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	summaries, err := client.ReservedSchedule(context.Background(), 42, "2025-03-01")
	if err != nil {
		t.Fatalf("reserved schedule: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != 9 || summaries[1].ID != 4 {
		t.Errorf("identifier normalization failed: %d, %d", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].Counts == nil || summaries[0].Counts.Confirmed != 2 {
		t.Errorf("counts not decoded: %+v", summaries[0].Counts)
	}
}

func TestAPIErrorFromMessageEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"not your activity"}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	_, err := client.ReservedSchedule(context.Background(), 1, "2025-03-01")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "not your activity" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
}

func TestUpdateReservationStatus(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 5, "status": "confirmed"}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	if err := client.UpdateReservationStatus(context.Background(), 7, 5, booking.StatusConfirmed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/my-activities/7/reservations/5" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotBody, `"confirmed"`) {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestUploadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"activityImageUrl":"https://cdn.example.com/a.png"}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	url, err := client.UploadImage(context.Background(), "a.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/a.png" {
		t.Errorf("unexpected url %q", url)
	}
}
