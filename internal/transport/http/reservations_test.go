package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/B24023/yoyakusys/internal/app"
	"github.com/B24023/yoyakusys/internal/config"
	"github.com/B24023/yoyakusys/internal/domain"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

type fakeLedger struct {
	checkResult app.ConflictResult
	checkErr    error
	appendRes   domain.Reservation
	appendErr   error
	resources   []domain.Resource
	loaded      []domain.Reservation
	loadErr     error

	gotReq domain.ReservationRequest
}

func (f *fakeLedger) Check(_ context.Context, req domain.ReservationRequest) (app.ConflictResult, error) {
	f.gotReq = req
	return f.checkResult, f.checkErr
}

func (f *fakeLedger) Append(_ context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	f.gotReq = req
	return f.appendRes, f.appendErr
}

func (f *fakeLedger) Load(_ context.Context, _ string) ([]domain.Reservation, error) {
	return f.loaded, f.loadErr
}

func (f *fakeLedger) Resources(_ context.Context) ([]domain.Resource, error) {
	return f.resources, nil
}

func newTestHandler(svc Ledger) http.Handler {
	cfg := config.Default()
	cfg.StorageBackend = config.BackendMemory
	return NewHandler(svc, cfg, log.New(&strings.Builder{}, "", 0))
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"resource_id":"meeting-room-a","date":"2025-06-02","start_time":"10:30","duration":"1時間"}`

func TestHandleCheckReservation(t *testing.T) {
	t.Parallel()

	t.Run("free slot", func(t *testing.T) {
		svc := &fakeLedger{}
		rec := postJSON(t, newTestHandler(svc), "/reservations/check", validBody)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Available bool            `json:"available"`
			Conflict  json.RawMessage `json:"conflict"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.Available || resp.Conflict != nil {
			t.Fatalf("expected available slot, got %s", rec.Body.String())
		}

		if !svc.gotReq.Start.Equal(at(10, 30)) || !svc.gotReq.End.Equal(at(11, 30)) {
			t.Fatalf("expected 10:30-11:30 candidate, got %v-%v", svc.gotReq.Start, svc.gotReq.End)
		}
	})

	t.Run("booked slot reports the conflict", func(t *testing.T) {
		blocker := domain.Reservation{ID: "r1", ResourceID: "meeting-room-a", Start: at(10, 0), End: at(11, 0)}
		svc := &fakeLedger{checkResult: app.ConflictResult{Conflict: &blocker}}
		rec := postJSON(t, newTestHandler(svc), "/reservations/check", validBody)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp checkResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Available || resp.Conflict == nil {
			t.Fatalf("expected conflict, got %s", rec.Body.String())
		}
		if !resp.Conflict.Start.Equal(at(10, 0)) {
			t.Fatalf("expected blocker start 10:00, got %v", resp.Conflict.Start)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := postJSON(t, newTestHandler(&fakeLedger{}), "/reservations/check", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		rec := postJSON(t, newTestHandler(&fakeLedger{}), "/reservations/check", `{"resource_id":"meeting-room-a"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("bad date format", func(t *testing.T) {
		body := `{"resource_id":"meeting-room-a","date":"06/02/2025","start_time":"10:30","duration":"1時間"}`
		rec := postJSON(t, newTestHandler(&fakeLedger{}), "/reservations/check", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unrecognized duration label is a 400, never a default", func(t *testing.T) {
		svc := &fakeLedger{}
		body := `{"resource_id":"meeting-room-a","date":"2025-06-02","start_time":"10:30","duration":"all day"}`
		rec := postJSON(t, newTestHandler(svc), "/reservations/check", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != codeUnrecognizedDuration {
			t.Fatalf("expected code %s, got %s", codeUnrecognizedDuration, resp.Code)
		}
		if !svc.gotReq.Start.IsZero() {
			t.Fatalf("ledger must not be called on parse failure")
		}
	})

	t.Run("start outside business hours", func(t *testing.T) {
		body := `{"resource_id":"meeting-room-a","date":"2025-06-02","start_time":"18:00","duration":"1時間"}`
		rec := postJSON(t, newTestHandler(&fakeLedger{}), "/reservations/check", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("start off the slot grid", func(t *testing.T) {
		body := `{"resource_id":"meeting-room-a","date":"2025-06-02","start_time":"10:15","duration":"1時間"}`
		rec := postJSON(t, newTestHandler(&fakeLedger{}), "/reservations/check", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleCreateReservation(t *testing.T) {
	t.Parallel()

	t.Run("commit", func(t *testing.T) {
		created := domain.Reservation{
			ID: "new-id", ResourceID: "meeting-room-a",
			Start: at(10, 30), End: at(11, 30), CreatedAt: at(9, 0),
		}
		svc := &fakeLedger{appendRes: created}
		rec := postJSON(t, newTestHandler(svc), "/reservations", validBody)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp reservationJSON
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "new-id" || resp.ResourceID != "meeting-room-a" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("conflict returns 409 naming the blocker", func(t *testing.T) {
		blocker := domain.Reservation{ID: "r1", ResourceID: "meeting-room-a", Start: at(10, 0), End: at(11, 0)}
		svc := &fakeLedger{appendErr: &domain.ConflictError{Existing: blocker}}
		rec := postJSON(t, newTestHandler(svc), "/reservations", validBody)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		var resp struct {
			Code     string       `json:"code"`
			Conflict conflictJSON `json:"conflict"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != codeReservationConflict {
			t.Fatalf("expected code %s, got %s", codeReservationConflict, resp.Code)
		}
		if !resp.Conflict.Start.Equal(at(10, 0)) || !resp.Conflict.End.Equal(at(11, 0)) {
			t.Fatalf("expected blocker 10:00-11:00, got %+v", resp.Conflict)
		}
	})

	t.Run("unknown resource returns 404", func(t *testing.T) {
		svc := &fakeLedger{appendErr: domain.ErrResourceNotFound}
		rec := postJSON(t, newTestHandler(svc), "/reservations", validBody)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("storage failure returns 503, not a silent success", func(t *testing.T) {
		svc := &fakeLedger{appendErr: context.DeadlineExceeded}
		rec := postJSON(t, newTestHandler(svc), "/reservations", validBody)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != codeStorageUnavailable {
			t.Fatalf("expected code %s, got %s", codeStorageUnavailable, resp.Code)
		}
	})
}

func TestReadEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		newTestHandler(&fakeLedger{}).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("resources", func(t *testing.T) {
		svc := &fakeLedger{resources: []domain.Resource{{ID: "meeting-room-a", Name: "ミーティングルーム A"}}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resources", nil)
		newTestHandler(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []resourceJSON
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 || resp[0].ID != "meeting-room-a" {
			t.Fatalf("unexpected resources: %+v", resp)
		}
	})

	t.Run("reservations for a resource", func(t *testing.T) {
		svc := &fakeLedger{loaded: []domain.Reservation{
			{ID: "r1", ResourceID: "meeting-room-a", Start: at(10, 0), End: at(11, 0)},
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resources/meeting-room-a/reservations", nil)
		newTestHandler(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []reservationListEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 || resp[0].ID != "r1" {
			t.Fatalf("unexpected reservations: %+v", resp)
		}
	})

	t.Run("booking options carry window and duration labels", func(t *testing.T) {
		svc := &fakeLedger{resources: []domain.Resource{{ID: "meeting-room-a", Name: "ミーティングルーム A"}}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/options", nil)
		newTestHandler(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp bookingOptionsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Resources) != 1 || resp.Hours.Open != "09:00" || resp.Hours.StepMinutes != 30 {
			t.Fatalf("unexpected options: %+v", resp)
		}
		if len(resp.DurationLabels) != 4 || resp.DurationLabels[0] != "30分" {
			t.Fatalf("unexpected duration labels: %+v", resp.DurationLabels)
		}
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		newTestHandler(&fakeLedger{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("expected JSON body, got %q", rec.Body.String())
		}
		if resp.Code != codeNotFound {
			t.Fatalf("expected code %s, got %s", codeNotFound, resp.Code)
		}
	})
}
