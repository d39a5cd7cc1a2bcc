package activities

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/trailhop/gateway/internal/editdiff"
	"github.com/trailhop/gateway/internal/testutil"
	"github.com/trailhop/gateway/internal/upstream"
)

const activityJSON = `{
	"id": 7, "userId": 1,
	"title": "Harbor kayak tour", "category": "Sports",
	"description": "Two hours on the water.", "price": 45000,
	"address": "Pier 9", "bannerImageUrl": "https://img.example/banner.png",
	"subImages": [{"id": 12, "imageUrl": "https://img.example/sub.png"}],
	"schedules": [{"id": 31, "date": "2025-06-10", "startTime": "10:00", "endTime": "11:00"}]
}`

func setupActivitiesTest(t *testing.T, mux *http.ServeMux) {
	t.Helper()

	server := testutil.NewUpstream(t, mux)

	client = nil
	initOnce = sync.Once{}
	InitHandlers(upstream.New(server.URL, time.Second))

	t.Cleanup(func() {
		client = nil
		initOnce = sync.Once{}
	})
}

// editRequest builds a multipart PATCH with the given form JSON and any
// staged file parts.
func editRequest(t *testing.T, form map[string]any, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	raw, err := json.Marshal(form)
	if err != nil {
		t.Fatalf("marshal form: %v", err)
	}
	if err := mw.WriteField("form", string(raw)); err != nil {
		t.Fatalf("write form part: %v", err)
	}
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	r := httptest.NewRequest(http.MethodPatch, "/api/v1/my-activities/7", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.SetPathValue("id", "7")
	return r
}

func baseForm() map[string]any {
	return map[string]any{
		"title":          "Harbor kayak tour",
		"category":       "Sports",
		"description":    "Two hours on the water.",
		"price":          45000,
		"address":        "Pier 9",
		"bannerImageUrl": "https://img.example/banner.png",
		"subImageUrls":   []string{"https://img.example/sub.png"},
		"schedules": []map[string]any{
			{"date": "", "startTime": "", "endTime": ""},
			{"id": 31, "date": "2025-06-10", "startTime": "10:00", "endTime": "11:00"},
		},
	}
}

func TestHandleUpdateScheduleReplacement(t *testing.T) {
	var gotUpdate editdiff.UpdatePayload
	mux := http.NewServeMux()
	mux.HandleFunc("/activities/7", testutil.JSONHandler(http.StatusOK, activityJSON))
	mux.HandleFunc("PATCH /my-activities/7", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotUpdate); err != nil {
			t.Errorf("decode upstream payload: %v", err)
		}
		testutil.JSONHandler(http.StatusOK, `{}`)(w, r)
	})

	setupActivitiesTest(t, mux)

	form := baseForm()
	form["schedules"] = []map[string]any{
		{"date": "", "startTime": "", "endTime": ""},
		{"id": 31, "date": "2025-06-10", "startTime": "14:00", "endTime": "15:00"},
	}

	w := httptest.NewRecorder()
	HandleUpdate(w, editRequest(t, form, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if len(gotUpdate.ScheduleIDsToRemove) != 1 || gotUpdate.ScheduleIDsToRemove[0] != 31 {
		t.Errorf("ScheduleIDsToRemove = %v", gotUpdate.ScheduleIDsToRemove)
	}
	if len(gotUpdate.SchedulesToAdd) != 1 || gotUpdate.SchedulesToAdd[0].StartTime != "14:00" {
		t.Errorf("SchedulesToAdd = %+v", gotUpdate.SchedulesToAdd)
	}
}

func TestHandleUpdateUploadsStagedImages(t *testing.T) {
	var uploaded int
	var gotUpdate editdiff.UpdatePayload
	mux := http.NewServeMux()
	mux.HandleFunc("/activities/7", testutil.JSONHandler(http.StatusOK, activityJSON))
	mux.HandleFunc("POST /activities/image", func(w http.ResponseWriter, r *http.Request) {
		uploaded++
		testutil.JSONHandler(http.StatusCreated, `{"activityImageUrl":"https://img.example/uploaded.png"}`)(w, r)
	})
	mux.HandleFunc("PATCH /my-activities/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotUpdate)
		testutil.JSONHandler(http.StatusOK, `{}`)(w, r)
	})

	setupActivitiesTest(t, mux)

	form := baseForm()
	form["subImageUrls"] = []string{"https://img.example/sub.png", "staged:new-photo"}

	w := httptest.NewRecorder()
	HandleUpdate(w, editRequest(t, form, map[string]string{"staged:new-photo": "fake png bytes"}))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if uploaded != 1 {
		t.Errorf("uploads = %d", uploaded)
	}
	if len(gotUpdate.SubImageURLsToAdd) != 1 || gotUpdate.SubImageURLsToAdd[0] != "https://img.example/uploaded.png" {
		t.Errorf("SubImageURLsToAdd = %v", gotUpdate.SubImageURLsToAdd)
	}
}

func TestHandleUpdateValidationFailureIsBadRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/activities/7", testutil.JSONHandler(http.StatusOK, activityJSON))

	setupActivitiesTest(t, mux)

	form := baseForm()
	form["title"] = ""

	w := httptest.NewRecorder()
	HandleUpdate(w, editRequest(t, form, nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleUpdateUploadFailureAborts(t *testing.T) {
	var patched bool
	mux := http.NewServeMux()
	mux.HandleFunc("/activities/7", testutil.JSONHandler(http.StatusOK, activityJSON))
	mux.HandleFunc("POST /activities/image", testutil.JSONHandler(http.StatusInternalServerError, `{"message":"storage down"}`))
	mux.HandleFunc("PATCH /my-activities/7", func(w http.ResponseWriter, r *http.Request) {
		patched = true
	})

	setupActivitiesTest(t, mux)

	form := baseForm()
	form["subImageUrls"] = []string{"staged:new-photo"}

	w := httptest.NewRecorder()
	HandleUpdate(w, editRequest(t, form, map[string]string{"staged:new-photo": "fake png bytes"}))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status %d: %s", w.Code, w.Body.String())
	}
	if patched {
		t.Error("activity patched despite failed upload")
	}
}

func TestHandleUpdateRejectsNonMultipart(t *testing.T) {
	setupActivitiesTest(t, http.NewServeMux())

	r := httptest.NewRequest(http.MethodPatch, "/api/v1/my-activities/7", bytes.NewReader([]byte(`{}`)))
	r.Header.Set("Content-Type", "application/json")
	r.SetPathValue("id", "7")
	w := httptest.NewRecorder()
	HandleUpdate(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d", w.Code)
	}
}
