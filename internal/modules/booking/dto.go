package booking

import (
	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/utils"
)

type LocationInput struct {
	Address string   `json:"address" validate:"max=255"`
	Lat     *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng     *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
}

func (l *LocationInput) toDomain() domain.Location {
	if l == nil {
		return domain.Location{}
	}
	return domain.Location{Address: l.Address, Lat: l.Lat, Lng: l.Lng}
}

type CreateBookingRequest struct {
	ServiceID              int64          `json:"service_id" validate:"required,gt=0"`
	BikeModel              string         `json:"bike_model" validate:"required,max=100"`
	Date                   string         `json:"date" validate:"required"`
	Notes                  string         `json:"notes" validate:"max=1000"`
	RequestedPickupDropoff bool           `json:"requested_pickup_dropoff"`
	Pickup                 *LocationInput `json:"pickup" validate:"omitempty"`
	Dropoff                *LocationInput `json:"dropoff" validate:"omitempty"`
}

// UpdateBookingRequest carries only the fields the customer wants to change.
type UpdateBookingRequest struct {
	BikeModel              *string        `json:"bike_model" validate:"omitempty,min=1,max=100"`
	Date                   *string        `json:"date"`
	Notes                  *string        `json:"notes" validate:"omitempty,max=1000"`
	RequestedPickupDropoff *bool          `json:"requested_pickup_dropoff"`
	Pickup                 *LocationInput `json:"pickup" validate:"omitempty"`
	Dropoff                *LocationInput `json:"dropoff" validate:"omitempty"`
}

type AdminUpdateRequest struct {
	Status    *string  `json:"status"`
	TotalCost *float64 `json:"total_cost"`
}

type AdminListQuery struct {
	Page   int
	Limit  int
	Search string
}

type AdminListResponse struct {
	Bookings   []domain.Booking `json:"bookings"`
	Pagination utils.Pagination `json:"pagination"`
}

type DiscountResponse struct {
	Booking       *domain.Booking `json:"booking"`
	LoyaltyPoints int64           `json:"loyaltyPoints"`
}

type CancelResult struct {
	BookingID      int64 `json:"booking_id"`
	RefundedPoints int64 `json:"refunded_points"`
	ReversedPoints int64 `json:"reversed_points"`
}
