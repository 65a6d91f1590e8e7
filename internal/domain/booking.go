package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingInProgress BookingStatus = "In Progress"
	BookingCompleted  BookingStatus = "Completed"
	BookingCancelled  BookingStatus = "Cancelled"
)

var validTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingInProgress, BookingCompleted, BookingCancelled},
	BookingInProgress: {BookingCompleted, BookingCancelled},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// ParseBookingStatus accepts the four status names, case-insensitive.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	for st := range validTransitions {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// IsOpen reports whether the booking can still be cancelled by an admin.
func (s BookingStatus) IsOpen() bool {
	return s == BookingPending || s == BookingInProgress
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

type PaymentMethod string

const (
	MethodCOD         PaymentMethod = "COD"
	MethodKhalti      PaymentMethod = "Khalti"
	MethodEsewa       PaymentMethod = "eSewa"
	MethodNotSelected PaymentMethod = "Not Selected"
)

// Location is an address with optional coordinates.
type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// Complete reports whether both the address and the coordinates are set.
func (l Location) Complete() bool {
	return strings.TrimSpace(l.Address) != "" && l.Lat != nil && l.Lng != nil
}

type Booking struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	ServiceID  int64  `json:"service_id"`
	WorkshopID *int64 `json:"workshop_id"`

	CustomerName string    `json:"customer_name"`
	BikeModel    string    `json:"bike_model"`
	ServiceType  string    `json:"service_type"`
	Date         time.Time `json:"date"`
	Notes        string    `json:"notes,omitempty"`

	RequestedPickupDropoff bool     `json:"requested_pickup_dropoff"`
	Pickup                 Location `json:"pickup"`
	Dropoff                Location `json:"dropoff"`

	TotalCost         float64 `json:"total_cost"`
	PickupDropoffCost float64 `json:"pickup_dropoff_cost"`
	DiscountApplied   bool    `json:"discount_applied"`
	DiscountAmount    float64 `json:"discount_amount"`
	FinalAmount       float64 `json:"final_amount"`

	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	IsPaid        bool          `json:"is_paid"`
	PointsAwarded int64         `json:"points_awarded"`

	Status          BookingStatus `json:"status"`
	ArchivedByAdmin bool          `json:"archived_by_admin"`
	ReviewSubmitted bool          `json:"review_submitted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reprice recomputes discountAmount and finalAmount from the cost fields.
func (b *Booking) Reprice() {
	a := ComputeFinalAmount(b.TotalCost, b.PickupDropoffCost, b.DiscountApplied)
	b.DiscountAmount = a.DiscountAmount
	b.FinalAmount = a.FinalAmount
}

// ClearPickup drops the pickup request and its cost.
func (b *Booking) ClearPickup() {
	b.RequestedPickupDropoff = false
	b.Pickup = Location{}
	b.Dropoff = Location{}
	b.PickupDropoffCost = 0
}

// InWorkshop reports whether the booking belongs to the given workshop.
func (b *Booking) InWorkshop(workshopID *int64) bool {
	return b.WorkshopID != nil && workshopID != nil && *b.WorkshopID == *workshopID
}

// BookingPlan is what a booking mutation asks the store to commit together
// with the booking row.
type BookingPlan struct {
	Delete  bool
	Ledger  []LedgerEntry
	Attempt *PaymentAttempt

	// Balance is the customer's point balance after Ledger, filled in by
	// the store once the entries are applied.
	Balance int64
}

// BookingFilter narrows the admin listing.
type BookingFilter struct {
	WorkshopID *int64
	Search     string
	Page       int
	Limit      int
}
