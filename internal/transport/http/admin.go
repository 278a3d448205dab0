package http

import (
	"net/http"

	"github.com/cimillas/asset-reservations/internal/domain"
)

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleSetReservationStatus serves PATCH /admin/reservations/{id}/status.
// The admin check lives in the service so the overdue sweep shares it.
func HandleSetReservationStatus(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req setStatusRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := svc.SetStatus(r.Context(), p, r.PathValue("id"), domain.ReservationStatus(req.Status))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

// HandleAdminDashboard serves GET /admin/dashboard.
func HandleAdminDashboard(svc ReservationQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		s, err := svc.AdminDashboard(r.Context(), p)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, adminStatsResponse{
			ActiveAssets:       s.ActiveAssets,
			PendingRequests:    s.PendingRequests,
			AssetsInPossession: s.AssetsInPossession,
			CompletedRequests:  s.CompletedRequests,
			TotalRequests:      s.TotalRequests,
		})
	}
}
