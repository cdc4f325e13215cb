package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/B24023/yoyakusys/internal/app"
	"github.com/B24023/yoyakusys/internal/config"
	"github.com/B24023/yoyakusys/internal/domain"
	"github.com/B24023/yoyakusys/internal/duration"
)

// ReservationChecker is the minimal interface needed for admission previews.
type ReservationChecker interface {
	Check(ctx context.Context, req domain.ReservationRequest) (app.ConflictResult, error)
}

// ReservationAppender is the minimal interface needed to commit a booking.
type ReservationAppender interface {
	Append(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error)
}

// reservationPayload is the storage-collaborator row shape: resource id plus
// text date, start time and duration label, exactly what the booking form
// submits. Combining them into an instant and resolving the label is done
// here, before the ledger sees the request.
type reservationPayload struct {
	ResourceID string `json:"resource_id" validate:"required"`
	Date       string `json:"date" validate:"required,dateonly"`
	StartTime  string `json:"start_time" validate:"required,timeofday"`
	Duration   string `json:"duration" validate:"required"`
}

type conflictJSON struct {
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

type checkResponse struct {
	Available bool          `json:"available"`
	Conflict  *conflictJSON `json:"conflict,omitempty"`
}

type reservationJSON struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
}

// HandleCheckReservation returns the admission-preview handler. A conflict is
// a 200 with available=false, not an error status: the form renders a warning
// from it before the user ever confirms.
func HandleCheckReservation(svc ReservationChecker, hours config.HoursConfig) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		req, ok := decodeReservation(w, r, hours)
		if !ok {
			return
		}

		result, err := svc.Check(r.Context(), req)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		resp := checkResponse{Available: !result.IsBooked()}
		if result.Conflict != nil {
			resp.Conflict = &conflictJSON{
				ResourceID: result.Conflict.ResourceID,
				Start:      result.Conflict.Start,
				End:        result.Conflict.End,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCreateReservation returns the commit handler.
func HandleCreateReservation(svc ReservationAppender, hours config.HoursConfig) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		req, ok := decodeReservation(w, r, hours)
		if !ok {
			return
		}

		res, err := svc.Append(r.Context(), req)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, reservationJSON{
			ID:         res.ID,
			ResourceID: res.ResourceID,
			Start:      res.Start,
			End:        res.End,
			CreatedAt:  res.CreatedAt,
		})
	}
}

func decodeReservation(w http.ResponseWriter, r *http.Request, hours config.HoursConfig) (domain.ReservationRequest, bool) {
	var payload reservationPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return domain.ReservationRequest{}, false
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return domain.ReservationRequest{}, false
	}

	start, err := time.Parse("2006-01-02 15:04", payload.Date+" "+payload.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid date or start_time")
		return domain.ReservationRequest{}, false
	}
	if !hours.WithinWindow(start) {
		writeError(w, http.StatusBadRequest, codeOutsideBusinessHours,
			"start_time must fall within business hours on a slot boundary")
		return domain.ReservationRequest{}, false
	}

	elapsed, err := duration.Parse(payload.Duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeUnrecognizedDuration, err.Error())
		return domain.ReservationRequest{}, false
	}

	return domain.ReservationRequest{
		ResourceID: payload.ResourceID,
		Start:      start,
		End:        start.Add(elapsed),
	}, true
}

// writeLedgerError maps ledger errors onto distinct statuses so the form can
// tell "already booked" (409) apart from "try again later" (503).
func writeLedgerError(w http.ResponseWriter, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(struct {
			Error    string       `json:"error"`
			Code     string       `json:"code"`
			Conflict conflictJSON `json:"conflict"`
		}{
			Error: err.Error(),
			Code:  codeReservationConflict,
			Conflict: conflictJSON{
				ResourceID: conflict.Existing.ResourceID,
				Start:      conflict.Existing.Start,
				End:        conflict.Existing.End,
			},
		})
	case errors.Is(err, domain.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, codeInvalidInterval, err.Error())
	case errors.Is(err, domain.ErrResourceNotFound):
		writeError(w, http.StatusNotFound, codeResourceNotFound, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable, try again later")
	}
}
