package http

import (
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/B24023/yoyakusys/internal/config"
)

// Ledger is the full service surface the router wires up.
type Ledger interface {
	ReservationChecker
	ReservationAppender
	ReservationLister
	ResourceLister
}

// NewHandler assembles the routes and the middleware chain.
func NewHandler(svc Ledger, cfg *config.Config, logger *log.Logger) http.Handler {
	router := httprouter.New()

	router.GET("/health", health)
	router.GET("/options", HandleBookingOptions(svc, cfg))
	router.GET("/resources", HandleListResources(svc))
	router.GET("/resources/:id/reservations", HandleListReservations(svc))
	router.POST("/reservations/check", HandleCheckReservation(svc, cfg.Hours))
	router.POST("/reservations", HandleCreateReservation(svc, cfg.Hours))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	router.HandleOPTIONS = false

	return RequestLogger(CORS(cfg.CORSOrigins, router), logger)
}

func health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
