package domain

import (
	"errors"
	"fmt"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidInterval  = errors.New("reservation interval must end after it starts")
	ErrConflict         = errors.New("reservation conflict")
)

// ConflictError reports that a candidate interval overlaps a committed
// reservation. It carries the blocking reservation for user-facing messaging
// and matches ErrConflict under errors.Is.
type ConflictError struct {
	Existing Reservation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("reservation conflict: %s is booked %s - %s",
		e.Existing.ResourceID,
		e.Existing.Start.Format("2006-01-02 15:04"),
		e.Existing.End.Format("15:04"),
	)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
