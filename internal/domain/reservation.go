package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusPending         ReservationStatus = "pending"
	StatusAwaitingPayment ReservationStatus = "awaiting_payment"
	StatusPaid            ReservationStatus = "paid"
	StatusInPossession    ReservationStatus = "in_possession"
	StatusReturned        ReservationStatus = "returned"
	StatusOverdue         ReservationStatus = "overdue"
	StatusCancelled       ReservationStatus = "cancelled"
	StatusCompleted       ReservationStatus = "completed"
)

var knownStatuses = map[ReservationStatus]struct{}{
	StatusPending:         {},
	StatusAwaitingPayment: {},
	StatusPaid:            {},
	StatusInPossession:    {},
	StatusReturned:        {},
	StatusOverdue:         {},
	StatusCancelled:       {},
	StatusCompleted:       {},
}

func (s ReservationStatus) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// InstantHoldingStatuses count against "available now".
var InstantHoldingStatuses = []ReservationStatus{
	StatusPending,
	StatusAwaitingPayment,
	StatusPaid,
	StatusInPossession,
}

// WindowHoldingStatuses count against a requested window during admission.
var WindowHoldingStatuses = []ReservationStatus{
	StatusPending,
	StatusAwaitingPayment,
	StatusPaid,
	StatusInPossession,
	StatusOverdue,
}

func (s ReservationStatus) Cancellable() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusPaid:
		return true
	default:
		return false
	}
}

// Finished reports whether the unit is back and the reservation is closed
// for feedback.
func (s ReservationStatus) Finished() bool {
	return s == StatusReturned || s == StatusCompleted
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Reservation holds Quantity units of an asset for a window.
type Reservation struct {
	ID            string
	ReferenceCode string
	AssetID       string
	RequesterID   string
	Window        Window
	Quantity      int
	Purpose       string
	Notes         string
	Status        ReservationStatus
	PaymentStatus PaymentStatus
	TotalAmount   *decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReservationView is a reservation with its owned collections attached.
type ReservationView struct {
	Reservation
	Audits   []AuditEntry
	Payments []PaymentRecord
	Feedback *Feedback
}
