package http

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/B24023/yoyakusys/internal/domain"
)

// ResourceLister is the minimal interface needed to list bookable resources.
type ResourceLister interface {
	Resources(ctx context.Context) ([]domain.Resource, error)
}

// ReservationLister is the minimal interface needed to read a resource's
// committed reservations.
type ReservationLister interface {
	Load(ctx context.Context, resourceID string) ([]domain.Reservation, error)
}

type resourceJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleListResources returns the configured resource list.
func HandleListResources(svc ResourceLister) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		resources, err := svc.Resources(r.Context())
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		out := make([]resourceJSON, 0, len(resources))
		for _, res := range resources {
			out = append(out, resourceJSON{ID: res.ID, Name: res.Name})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleListReservations returns a resource's committed reservations.
func HandleListReservations(svc ReservationLister) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		reservations, err := svc.Load(r.Context(), ps.ByName("id"))
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		out := make([]reservationListEntry, 0, len(reservations))
		for _, res := range reservations {
			out = append(out, reservationListEntry{
				ID:         res.ID,
				ResourceID: res.ResourceID,
				Start:      res.Start,
				End:        res.End,
				CreatedAt:  res.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type reservationListEntry struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
}
