package http

import (
	"net/http"

	"go.uber.org/zap"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Catalog      AssetCatalog
	Availability AvailabilityReader
	Reservations ReservationRequester
	Lifecycle    ReservationLifecycle
	Queries      ReservationQueries
	Store        Pinger
	Auth         PrincipalResolver
	CORSOrigins  []string
	Logger       *zap.Logger
}

// NewRouter wires every route behind CORS and request logging. Catalog reads
// and /health are public; everything else needs a bearer token.
func NewRouter(d Dependencies) http.Handler {
	mux := http.NewServeMux()
	auth := func(h http.Handler) http.Handler { return RequireAuth(d.Auth, h) }

	mux.Handle("GET /health", HealthHandler(d.Store))

	mux.Handle("GET /assets", HandleListAssets(d.Catalog))
	mux.Handle("GET /assets/{id}", HandleGetAsset(d.Catalog))
	mux.Handle("GET /assets/{id}/availability", HandleAvailability(d.Availability))

	mux.Handle("POST /reservations", auth(HandleCreateReservation(d.Reservations)))
	mux.Handle("GET /reservations", auth(HandleListReservations(d.Queries)))
	mux.Handle("GET /reservations/{id}", auth(HandleGetReservation(d.Queries)))
	mux.Handle("POST /reservations/{id}/cancel", auth(HandleCancelReservation(d.Lifecycle)))
	mux.Handle("POST /reservations/{id}/pay", auth(HandlePayReservation(d.Lifecycle)))
	mux.Handle("POST /reservations/{id}/feedback", auth(HandleSubmitFeedback(d.Lifecycle)))
	mux.Handle("GET /dashboard", auth(HandleUserDashboard(d.Queries)))

	mux.Handle("POST /admin/assets", auth(HandleCreateAsset(d.Catalog)))
	mux.Handle("PATCH /admin/reservations/{id}/status", auth(HandleSetReservationStatus(d.Lifecycle)))
	mux.Handle("GET /admin/dashboard", auth(HandleAdminDashboard(d.Queries)))

	mux.Handle("/", NotFoundHandler())

	return RequestLogger(CORS(d.CORSOrigins, mux), d.Logger)
}
