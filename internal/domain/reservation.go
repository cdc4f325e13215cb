package domain

import "time"

// Reservation is a committed booking. Instants are naive local times and are
// compared as-is; created_at is informational only.
type Reservation struct {
	ID         string
	ResourceID string
	Start      time.Time
	End        time.Time
	CreatedAt  time.Time
}

// ReservationRequest is a candidate booking awaiting an admission decision.
type ReservationRequest struct {
	ResourceID string
	Start      time.Time
	End        time.Time
}

// Valid reports whether the candidate spans a positive interval.
func (r ReservationRequest) Valid() bool {
	return r.End.After(r.Start)
}

// Overlaps applies the half-open interval rule: [s1,e1) and [s2,e2) overlap
// iff s1 < e2 && s2 < e1. A reservation ending exactly when another starts
// does not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict scans existing reservations and returns the first one whose
// interval overlaps the candidate, or nil. Resource identity is re-verified
// here even though callers are expected to pre-filter by resource.
func FindConflict(existing []Reservation, candidate ReservationRequest) *Reservation {
	for i := range existing {
		if existing[i].ResourceID != candidate.ResourceID {
			continue
		}
		if Overlaps(candidate.Start, candidate.End, existing[i].Start, existing[i].End) {
			return &existing[i]
		}
	}
	return nil
}
