package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeValidationFailed     = "validation_failed"
	codeUnrecognizedDuration = "unrecognized_duration"
	codeInvalidInterval      = "invalid_interval"
	codeOutsideBusinessHours = "outside_business_hours"
	codeResourceNotFound     = "resource_not_found"
	codeReservationConflict  = "reservation_conflict"
	codeForbidden            = "forbidden"
	codeStorageUnavailable   = "storage_unavailable"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
