package domain

import "time"

const (
	ActionCreated         = "Created"
	ActionCancelled       = "Cancelled"
	ActionStatusUpdated   = "Status Updated"
	ActionPaymentReceived = "Payment Received"
)

// AuditDetails describes a transition. Unused fields are omitted when stored.
type AuditDetails struct {
	From      ReservationStatus `json:"from,omitempty"`
	To        ReservationStatus `json:"to,omitempty"`
	Amount    string            `json:"amount,omitempty"`
	Reference string            `json:"ref,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// AuditEntry is an append-only record of a reservation state change.
// PerformedBy is nil for system-initiated actions.
type AuditEntry struct {
	ID            string
	ReservationID string
	Action        string
	Details       AuditDetails
	PerformedBy   *string
	Timestamp     time.Time
}
