package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency      = "NGN"
	DefaultPaymentMethod = "card"
)

type PaymentRecordStatus string

const (
	PaymentRecordSuccess PaymentRecordStatus = "success"
	PaymentRecordFailed  PaymentRecordStatus = "failed"
)

// PaymentRecord is a settled payment against a reservation.
type PaymentRecord struct {
	ID            string
	ReservationID string
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	Method        string
	Status        PaymentRecordStatus
	CreatedAt     time.Time
}
