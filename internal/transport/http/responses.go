package http

import (
	"time"

	"github.com/cimillas/asset-reservations/internal/domain"
)

type assetResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Location          string    `json:"location"`
	TotalQuantity     int       `json:"total_quantity"`
	AvailableQuantity *int      `json:"available_quantity,omitempty"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

func toAssetResponse(a domain.Asset, available *int) assetResponse {
	return assetResponse{
		ID:                a.ID,
		Name:              a.Name,
		Type:              a.Type,
		Location:          a.Location,
		TotalQuantity:     a.TotalQuantity,
		AvailableQuantity: available,
		Active:            a.Active,
		CreatedAt:         a.CreatedAt,
	}
}

func toAssetAvailabilityResponse(a domain.AssetAvailability) assetResponse {
	free := a.AvailableNow
	return toAssetResponse(a.Asset, &free)
}

type windowResponse struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type reservationResponse struct {
	ID            string         `json:"id"`
	ReferenceCode string         `json:"reference_code"`
	AssetID       string         `json:"asset_id"`
	RequesterID   string         `json:"requester_id"`
	Window        windowResponse `json:"window"`
	Quantity      int            `json:"quantity"`
	Purpose       string         `json:"purpose"`
	Notes         string         `json:"notes,omitempty"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
	TotalAmount   *string        `json:"total_amount"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:            r.ID,
		ReferenceCode: r.ReferenceCode,
		AssetID:       r.AssetID,
		RequesterID:   r.RequesterID,
		Window:        windowResponse{Start: timePtr(r.Window.Start), End: timePtr(r.Window.End)},
		Quantity:      r.Quantity,
		Purpose:       r.Purpose,
		Notes:         r.Notes,
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.TotalAmount != nil {
		amount := r.TotalAmount.StringFixed(2)
		resp.TotalAmount = &amount
	}
	return resp
}

type auditResponse struct {
	ID          string              `json:"id"`
	Action      string              `json:"action"`
	Details     domain.AuditDetails `json:"details"`
	PerformedBy *string             `json:"performed_by"`
	Timestamp   time.Time           `json:"timestamp"`
}

type paymentResponse struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	Reference     string    `json:"reference"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPaymentResponse(p domain.PaymentRecord) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		ReservationID: p.ReservationID,
		Reference:     p.Reference,
		Amount:        p.Amount.StringFixed(2),
		Currency:      p.Currency,
		Method:        p.Method,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
	}
}

type feedbackResponse struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	AssetID       string    `json:"asset_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toFeedbackResponse(f domain.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:            f.ID,
		ReservationID: f.ReservationID,
		AssetID:       f.AssetID,
		Rating:        f.Rating,
		Comment:       f.Comment,
		CreatedAt:     f.CreatedAt,
	}
}

type reservationViewResponse struct {
	reservationResponse
	Audits   []auditResponse   `json:"audits"`
	Payments []paymentResponse `json:"payments"`
	Feedback *feedbackResponse `json:"feedback"`
}

func toReservationViewResponse(v domain.ReservationView) reservationViewResponse {
	resp := reservationViewResponse{
		reservationResponse: toReservationResponse(v.Reservation),
		Audits:              make([]auditResponse, 0, len(v.Audits)),
		Payments:            make([]paymentResponse, 0, len(v.Payments)),
	}
	for _, a := range v.Audits {
		resp.Audits = append(resp.Audits, auditResponse{
			ID:          a.ID,
			Action:      a.Action,
			Details:     a.Details,
			PerformedBy: a.PerformedBy,
			Timestamp:   a.Timestamp,
		})
	}
	for _, p := range v.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	if v.Feedback != nil {
		fb := toFeedbackResponse(*v.Feedback)
		resp.Feedback = &fb
	}
	return resp
}

type userStatsResponse struct {
	TotalReservations     int `json:"total_reservations"`
	PendingReservations   int `json:"pending_reservations"`
	ActiveReservations    int `json:"active_reservations"`
	CompletedReservations int `json:"completed_reservations"`
}

type adminStatsResponse struct {
	ActiveAssets       int `json:"active_assets"`
	PendingRequests    int `json:"pending_requests"`
	AssetsInPossession int `json:"assets_in_possession"`
	CompletedRequests  int `json:"completed_requests"`
	TotalRequests      int `json:"total_requests"`
}
