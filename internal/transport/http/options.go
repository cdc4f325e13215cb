package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/B24023/yoyakusys/internal/config"
)

type hoursJSON struct {
	Open        string `json:"open"`
	Close       string `json:"close"`
	StepMinutes int    `json:"step_minutes"`
}

type bookingOptionsResponse struct {
	Resources      []resourceJSON `json:"resources"`
	Hours          hoursJSON      `json:"hours"`
	DurationLabels []string       `json:"duration_labels"`
}

// HandleBookingOptions serves everything the booking form needs to render its
// selects: the resource list, the bookable window with its slot step, and the
// duration labels on offer.
func HandleBookingOptions(svc ResourceLister, cfg *config.Config) httprouter.Handle {
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

		writeJSON(w, http.StatusOK, bookingOptionsResponse{
			Resources: out,
			Hours: hoursJSON{
				Open:        cfg.Hours.Open,
				Close:       cfg.Hours.Close,
				StepMinutes: cfg.Hours.StepMinutes,
			},
			DurationLabels: cfg.DurationLabels,
		})
	}
}
