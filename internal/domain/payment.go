package domain

import "time"

type AttemptStatus string

const (
	AttemptInitiated AttemptStatus = "initiated"
	AttemptVerified  AttemptStatus = "verified"
	AttemptFailed    AttemptStatus = "failed"
	AttemptExpired   AttemptStatus = "expired"
)

// PaymentAttempt records one confirmation or gateway verification call.
// SettledRef is set only on success and is unique, so a gateway reference
// can settle at most one booking.
type PaymentAttempt struct {
	ID            int64         `json:"id"`
	BookingID     int64         `json:"booking_id"`
	Gateway       PaymentMethod `json:"gateway"`
	Reference     string        `json:"reference"`
	Amount        float64       `json:"amount"`
	Status        AttemptStatus `json:"status"`
	SettledRef    *string       `json:"-"`
	FailureReason string        `json:"failure_reason,omitempty"`
	RawResponse   string        `json:"-"`
	VerifiedAt    *time.Time    `json:"verified_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
