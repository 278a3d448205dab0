package app

import (
	"context"
	"strings"

	"github.com/cimillas/asset-reservations/internal/domain"
)

type QueryRepository interface {
	GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error)
	// ListReservations returns newest first. An empty requesterID lists every reservation.
	ListReservations(ctx context.Context, requesterID string) ([]domain.Reservation, error)
	ListAudits(ctx context.Context, reservationID string) ([]domain.AuditEntry, error)
	ListPayments(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error)
	FindFeedback(ctx context.Context, reservationID string) (*domain.Feedback, error)
	// CountByStatus groups reservations by status. An empty requesterID counts every reservation.
	CountByStatus(ctx context.Context, requesterID string) (map[domain.ReservationStatus]int, error)
	CountActiveAssets(ctx context.Context) (int, error)
}

// QueryService serves the read side: reservation views, listings and dashboards.
type QueryService struct {
	repo QueryRepository
}

func NewQueryService(repo QueryRepository) *QueryService {
	return &QueryService{repo: repo}
}

// GetReservation returns the reservation with audits (oldest first), payments
// and feedback. Only the requester or an admin may read it.
func (s *QueryService) GetReservation(ctx context.Context, p domain.Principal, reservationID string) (domain.ReservationView, error) {
	if strings.TrimSpace(reservationID) == "" {
		return domain.ReservationView{}, domain.NewValidationError("reservation_id", "required")
	}
	r, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.ReservationView{}, err
	}
	if r.RequesterID != p.ID && !p.IsAdmin() {
		return domain.ReservationView{}, domain.ErrForbidden
	}

	audits, err := s.repo.ListAudits(ctx, r.ID)
	if err != nil {
		return domain.ReservationView{}, err
	}
	payments, err := s.repo.ListPayments(ctx, r.ID)
	if err != nil {
		return domain.ReservationView{}, err
	}
	fb, err := s.repo.FindFeedback(ctx, r.ID)
	if err != nil {
		return domain.ReservationView{}, err
	}
	return domain.ReservationView{
		Reservation: r,
		Audits:      audits,
		Payments:    payments,
		Feedback:    fb,
	}, nil
}

// ListReservations returns every reservation for admins and the caller's own otherwise.
func (s *QueryService) ListReservations(ctx context.Context, p domain.Principal) ([]domain.Reservation, error) {
	if p.IsAdmin() {
		return s.repo.ListReservations(ctx, "")
	}
	if p.ID == "" {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListReservations(ctx, p.ID)
}

func (s *QueryService) UserDashboard(ctx context.Context, p domain.Principal) (domain.UserStats, error) {
	if p.ID == "" {
		return domain.UserStats{}, domain.ErrForbidden
	}
	counts, err := s.repo.CountByStatus(ctx, p.ID)
	if err != nil {
		return domain.UserStats{}, err
	}
	return domain.UserStats{
		TotalReservations:     total(counts),
		PendingReservations:   counts[domain.StatusPending],
		ActiveReservations:    counts[domain.StatusPaid] + counts[domain.StatusInPossession],
		CompletedReservations: counts[domain.StatusReturned] + counts[domain.StatusCompleted],
	}, nil
}

func (s *QueryService) AdminDashboard(ctx context.Context, p domain.Principal) (domain.AdminStats, error) {
	if !p.IsAdmin() {
		return domain.AdminStats{}, domain.ErrForbidden
	}
	counts, err := s.repo.CountByStatus(ctx, "")
	if err != nil {
		return domain.AdminStats{}, err
	}
	assets, err := s.repo.CountActiveAssets(ctx)
	if err != nil {
		return domain.AdminStats{}, err
	}
	return domain.AdminStats{
		ActiveAssets:       assets,
		PendingRequests:    counts[domain.StatusPending],
		AssetsInPossession: counts[domain.StatusInPossession],
		CompletedRequests:  counts[domain.StatusReturned] + counts[domain.StatusCompleted],
		TotalRequests:      total(counts),
	}, nil
}

func total(counts map[domain.ReservationStatus]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
