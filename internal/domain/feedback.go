package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID            string
	ReservationID string
	AssetID       string
	UserID        string
	Rating        int
	Comment       string
	CreatedAt     time.Time
}
