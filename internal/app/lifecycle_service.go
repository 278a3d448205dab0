package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cimillas/asset-reservations/internal/clock"
	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LifecycleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetReservationForUpdate locks the reservation row until the transaction ends.
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, r domain.Reservation) error
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
	CreatePayment(ctx context.Context, p domain.PaymentRecord) error
	FindFeedback(ctx context.Context, reservationID string) (*domain.Feedback, error)
	CreateFeedback(ctx context.Context, f domain.Feedback) error
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// LifecycleService is the reservation state machine. Every transition reads,
// guards, writes and audits inside a single transaction.
type LifecycleService struct {
	repo   LifecycleRepository
	clock  clock.Clock
	logger *zap.Logger
}

func NewLifecycleService(repo LifecycleRepository, clk clock.Clock, opts ...Option) *LifecycleService {
	cfg := newServiceConfig(opts)
	return &LifecycleService{
		repo:   repo,
		clock:  clk,
		logger: cfg.logger,
	}
}

// Cancel lets the requester withdraw a reservation that is not yet in their
// possession. A paid reservation is marked refunded.
func (s *LifecycleService) Cancel(ctx context.Context, p domain.Principal, reservationID string) (domain.Reservation, error) {
	if reservationID == "" {
		return domain.Reservation{}, domain.NewValidationError("reservation_id", "required")
	}

	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if r.RequesterID != p.ID {
			return domain.ErrForbidden
		}
		if !r.Status.Cancellable() {
			return domain.ErrInvalidTransition
		}

		from := r.Status
		now := s.clock.Now()
		r.Status = domain.StatusCancelled
		if from == domain.StatusPaid {
			r.PaymentStatus = domain.PaymentRefunded
		}
		r.UpdatedAt = now

		if err := s.repo.UpdateReservation(txCtx, r); err != nil {
			return err
		}
		if err := s.repo.AppendAudit(txCtx, domain.AuditEntry{
			ID:            newUUID(),
			ReservationID: r.ID,
			Action:        domain.ActionCancelled,
			Details:       domain.AuditDetails{From: from, Reason: "requester cancelled"},
			PerformedBy:   p.Actor(),
			Timestamp:     now,
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", result.ID),
		zap.String("payment_status", string(result.PaymentStatus)))
	return result, nil
}

// SetStatus is the administrative transition used to move a reservation
// through awaiting_payment, in_possession, returned and overdue.
func (s *LifecycleService) SetStatus(ctx context.Context, p domain.Principal, reservationID string, status domain.ReservationStatus) (domain.Reservation, error) {
	if !p.IsAdmin() && !p.IsSystem() {
		return domain.Reservation{}, domain.ErrForbidden
	}
	if reservationID == "" {
		return domain.Reservation{}, domain.NewValidationError("reservation_id", "required")
	}
	if !status.Known() {
		return domain.Reservation{}, domain.NewValidationError("status", "unknown status "+string(status))
	}

	result, from, err := s.transition(ctx, p, reservationID, status, func(r domain.Reservation, _ time.Time) bool {
		return adminTransitionAllowed(r.Status, status)
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation status updated",
		zap.String("reservation_id", result.ID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
		zap.String("role", string(p.Role)))
	return result, nil
}

// MarkOverdue moves an in-possession reservation whose window has ended to
// overdue on behalf of the system. The condition is re-checked under the row
// lock, so a reservation that moved on since it was listed fails with
// ErrInvalidTransition.
func (s *LifecycleService) MarkOverdue(ctx context.Context, reservationID string) (domain.Reservation, error) {
	if reservationID == "" {
		return domain.Reservation{}, domain.NewValidationError("reservation_id", "required")
	}
	result, _, err := s.transition(ctx, domain.SystemPrincipal(), reservationID, domain.StatusOverdue, func(r domain.Reservation, now time.Time) bool {
		return r.Status == domain.StatusInPossession && r.Window.Valid() && r.Window.End.Before(now)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	s.logger.Info("reservation marked overdue", zap.String("reservation_id", result.ID))
	return result, nil
}

// transition locks the reservation, applies status when allowed reports true
// and appends a "Status Updated" audit entry in the same transaction.
func (s *LifecycleService) transition(
	ctx context.Context,
	p domain.Principal,
	reservationID string,
	status domain.ReservationStatus,
	allowed func(r domain.Reservation, now time.Time) bool,
) (domain.Reservation, domain.ReservationStatus, error) {
	var result domain.Reservation
	var from domain.ReservationStatus
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if !allowed(r, now) {
			return domain.ErrInvalidTransition
		}

		from = r.Status
		r.Status = status
		switch {
		case status == domain.StatusPaid:
			r.PaymentStatus = domain.PaymentPaid
		case status == domain.StatusCancelled && r.PaymentStatus == domain.PaymentPaid:
			r.PaymentStatus = domain.PaymentRefunded
		}
		r.UpdatedAt = now

		if err := s.repo.UpdateReservation(txCtx, r); err != nil {
			return err
		}
		if err := s.repo.AppendAudit(txCtx, domain.AuditEntry{
			ID:            newUUID(),
			ReservationID: r.ID,
			Action:        domain.ActionStatusUpdated,
			Details:       domain.AuditDetails{From: from, To: status},
			PerformedBy:   p.Actor(),
			Timestamp:     now,
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return domain.Reservation{}, "", err
	}
	return result, from, nil
}

// adminTransitionAllowed keeps administrative moves unconstrained except that
// closed reservations stay closed and no-op moves are rejected.
func adminTransitionAllowed(from, to domain.ReservationStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case domain.StatusCancelled, domain.StatusCompleted:
		return false
	case domain.StatusReturned:
		return to == domain.StatusCompleted
	default:
		return true
	}
}

// maxAmount is the exclusive bound of a NUMERIC(12,2) column.
var maxAmount = decimal.New(1, 10)

func validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return domain.NewValidationError("amount", "must be positive")
	case amount.Exponent() < -2 && !amount.Equal(amount.Truncate(2)):
		return domain.NewValidationError("amount", "at most 2 decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		return domain.NewValidationError("amount", "must be below "+maxAmount.String())
	}
	return nil
}

// payable reports whether a payment may be taken in status. Closed
// reservations cannot be paid. A unit already out keeps its status and only
// the payment status flips.
func payable(status domain.ReservationStatus) bool {
	switch status {
	case domain.StatusCancelled, domain.StatusReturned, domain.StatusCompleted:
		return false
	default:
		return true
	}
}

type RecordPaymentInput struct {
	ReservationID string
	Amount        decimal.Decimal
	Method        string
}

// RecordPayment captures a trusted payment from the requester and settles
// the reservation.
func (s *LifecycleService) RecordPayment(ctx context.Context, p domain.Principal, in RecordPaymentInput) (domain.PaymentRecord, error) {
	if in.ReservationID == "" {
		return domain.PaymentRecord{}, domain.NewValidationError("reservation_id", "required")
	}
	if err := validateAmount(in.Amount); err != nil {
		return domain.PaymentRecord{}, err
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = domain.DefaultPaymentMethod
	}

	var result domain.PaymentRecord
	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		result, err = s.settle(ctx, p, in, method)
		if !errors.Is(err, domain.ErrDuplicateReference) {
			break
		}
	}
	if err != nil {
		return domain.PaymentRecord{}, err
	}

	s.logger.Info("payment received",
		zap.String("reservation_id", result.ReservationID),
		zap.String("reference", result.Reference),
		zap.String("amount", result.Amount.StringFixed(2)))
	return result, nil
}

func (s *LifecycleService) settle(ctx context.Context, p domain.Principal, in RecordPaymentInput, method string) (domain.PaymentRecord, error) {
	var result domain.PaymentRecord
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, in.ReservationID)
		if err != nil {
			return err
		}
		if r.RequesterID != p.ID {
			return domain.ErrForbidden
		}
		if r.PaymentStatus == domain.PaymentPaid {
			return domain.ErrAlreadyPaid
		}
		if !payable(r.Status) {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		payment := domain.PaymentRecord{
			ID:            newUUID(),
			ReservationID: r.ID,
			Reference:     newPaymentReference(),
			Amount:        in.Amount,
			Currency:      domain.DefaultCurrency,
			Method:        method,
			Status:        domain.PaymentRecordSuccess,
			CreatedAt:     now,
		}
		if err := s.repo.CreatePayment(txCtx, payment); err != nil {
			return err
		}

		from := r.Status
		amount := in.Amount
		if from == domain.StatusPending || from == domain.StatusAwaitingPayment {
			r.Status = domain.StatusPaid
		}
		r.PaymentStatus = domain.PaymentPaid
		r.TotalAmount = &amount
		r.UpdatedAt = now
		if err := s.repo.UpdateReservation(txCtx, r); err != nil {
			return err
		}

		if err := s.repo.AppendAudit(txCtx, domain.AuditEntry{
			ID:            newUUID(),
			ReservationID: r.ID,
			Action:        domain.ActionPaymentReceived,
			Details: domain.AuditDetails{
				From:      from,
				To:        r.Status,
				Amount:    in.Amount.StringFixed(2),
				Reference: payment.Reference,
			},
			PerformedBy: p.Actor(),
			Timestamp:   now,
		}); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	return result, nil
}

type SubmitFeedbackInput struct {
	ReservationID string
	Rating        int
	Comment       string
}

// SubmitFeedback records the requester's single rating for a finished reservation.
func (s *LifecycleService) SubmitFeedback(ctx context.Context, p domain.Principal, in SubmitFeedbackInput) (domain.Feedback, error) {
	if in.ReservationID == "" {
		return domain.Feedback{}, domain.NewValidationError("reservation_id", "required")
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return domain.Feedback{}, domain.NewValidationError("rating", "must be between 1 and 5")
	}

	var result domain.Feedback
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, in.ReservationID)
		if err != nil {
			return err
		}
		if r.RequesterID != p.ID {
			return domain.ErrForbidden
		}
		if !r.Status.Finished() {
			return domain.ErrInvalidState
		}

		existing, err := s.repo.FindFeedback(txCtx, r.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadySubmitted
		}

		fb := domain.Feedback{
			ID:            newUUID(),
			ReservationID: r.ID,
			AssetID:       r.AssetID,
			UserID:        p.ID,
			Rating:        in.Rating,
			Comment:       strings.TrimSpace(in.Comment),
			CreatedAt:     s.clock.Now(),
		}
		if err := s.repo.CreateFeedback(txCtx, fb); err != nil {
			return err
		}
		result = fb
		return nil
	})
	if err != nil {
		return domain.Feedback{}, err
	}
	return result, nil
}

// OverdueCandidates lists in-possession reservations whose window has ended.
// An external sweep moves them to overdue through MarkOverdue.
func (s *LifecycleService) OverdueCandidates(ctx context.Context) ([]domain.Reservation, error) {
	return s.repo.ListOverdue(ctx, s.clock.Now())
}
