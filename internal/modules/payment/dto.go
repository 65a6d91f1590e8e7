package payment

import "bikeworkshop/internal/domain"

type PayRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

// KhaltiVerifyRequest carries the widget token. Amount is in paisa.
type KhaltiVerifyRequest struct {
	Token     string `json:"token" validate:"required,max=255"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	BookingID int64  `json:"booking_id" validate:"required,gt=0"`
}

// EsewaVerifyRequest carries the ePay callback fields. TotalAmount is in rupees.
type EsewaVerifyRequest struct {
	TransactionUUID string  `json:"transaction_uuid" validate:"required,max=128"`
	TotalAmount     float64 `json:"total_amount" validate:"required,gt=0"`
	BookingID       int64   `json:"booking_id" validate:"required,gt=0"`
}

type PaymentResult struct {
	Booking       *domain.Booking `json:"booking"`
	PointsAwarded int64           `json:"pointsAwarded"`
}
