package app

import (
	"strings"

	"github.com/google/uuid"
)

const (
	reservationRefPrefix = "BK-"
	reservationRefLength = 6
	paymentRefPrefix     = "PAY-"
	paymentRefLength     = 8
)

func newUUID() string {
	return uuid.NewString()
}

// newReference builds a short human-readable code from a random UUID.
// Uniqueness is enforced by the store's unique index.
func newReference(prefix string, n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(hex[:n])
}

func newReservationReference() string {
	return newReference(reservationRefPrefix, reservationRefLength)
}

func newPaymentReference() string {
	return newReference(paymentRefPrefix, paymentRefLength)
}
