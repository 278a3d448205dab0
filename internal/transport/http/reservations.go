package http

import (
	"context"
	"net/http"

	"github.com/cimillas/asset-reservations/internal/app"
	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/shopspring/decimal"
)

type ReservationRequester interface {
	RequestReservation(ctx context.Context, p domain.Principal, in app.CreateReservationInput) (domain.Reservation, error)
}

type ReservationLifecycle interface {
	Cancel(ctx context.Context, p domain.Principal, reservationID string) (domain.Reservation, error)
	SetStatus(ctx context.Context, p domain.Principal, reservationID string, status domain.ReservationStatus) (domain.Reservation, error)
	RecordPayment(ctx context.Context, p domain.Principal, in app.RecordPaymentInput) (domain.PaymentRecord, error)
	SubmitFeedback(ctx context.Context, p domain.Principal, in app.SubmitFeedbackInput) (domain.Feedback, error)
}

type ReservationQueries interface {
	GetReservation(ctx context.Context, p domain.Principal, reservationID string) (domain.ReservationView, error)
	ListReservations(ctx context.Context, p domain.Principal) ([]domain.Reservation, error)
	UserDashboard(ctx context.Context, p domain.Principal) (domain.UserStats, error)
	AdminDashboard(ctx context.Context, p domain.Principal) (domain.AdminStats, error)
}

type createReservationRequest struct {
	AssetID  string `json:"asset_id" validate:"required"`
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Purpose  string `json:"purpose" validate:"required,max=500"`
	Notes    string `json:"notes" validate:"max=2000"`
}

// HandleCreateReservation serves POST /reservations.
func HandleCreateReservation(svc ReservationRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req createReservationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		window, err := domain.ParseWindow(req.Start, req.End)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		res, err := svc.RequestReservation(r.Context(), p, app.CreateReservationInput{
			AssetID:  req.AssetID,
			Window:   window,
			Quantity: req.Quantity,
			Purpose:  req.Purpose,
			Notes:    req.Notes,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

// HandleListReservations serves GET /reservations.
func HandleListReservations(svc ReservationQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		list, err := svc.ListReservations(r.Context(), p)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		resp := make([]reservationResponse, 0, len(list))
		for _, res := range list {
			resp = append(resp, toReservationResponse(res))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetReservation serves GET /reservations/{id}.
func HandleGetReservation(svc ReservationQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		view, err := svc.GetReservation(r.Context(), p, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationViewResponse(view))
	}
}

// HandleCancelReservation serves POST /reservations/{id}/cancel.
func HandleCancelReservation(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		res, err := svc.Cancel(r.Context(), p, r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

type payRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"omitempty,max=32"`
}

// HandlePayReservation serves POST /reservations/{id}/pay. Amount may be a
// JSON number or a decimal string.
func HandlePayReservation(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req payRequest
		if !decodeBody(w, r, &req) {
			return
		}
		payment, err := svc.RecordPayment(r.Context(), p, app.RecordPaymentInput{
			ReservationID: r.PathValue("id"),
			Amount:        req.Amount,
			Method:        req.Method,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
	}
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// HandleSubmitFeedback serves POST /reservations/{id}/feedback.
func HandleSubmitFeedback(svc ReservationLifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req feedbackRequest
		if !decodeBody(w, r, &req) {
			return
		}
		fb, err := svc.SubmitFeedback(r.Context(), p, app.SubmitFeedbackInput{
			ReservationID: r.PathValue("id"),
			Rating:        req.Rating,
			Comment:       req.Comment,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFeedbackResponse(fb))
	}
}

// HandleUserDashboard serves GET /dashboard.
func HandleUserDashboard(svc ReservationQueries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		s, err := svc.UserDashboard(r.Context(), p)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userStatsResponse{
			TotalReservations:     s.TotalReservations,
			PendingReservations:   s.PendingReservations,
			ActiveReservations:    s.ActiveReservations,
			CompletedReservations: s.CompletedReservations,
		})
	}
}
