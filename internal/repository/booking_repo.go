package repository

import (
	"context"
	"strings"
	"time"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// MutateFunc edits the locked booking in place and returns what else must be
// committed with it. Returning an error aborts the whole transaction.
type MutateFunc func(b *domain.Booking) (*domain.BookingPlan, error)

type bookingModel struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	CustomerID int64  `gorm:"column:customer_id;not null;index"`
	ServiceID  int64  `gorm:"column:service_id;not null;index"`
	WorkshopID *int64 `gorm:"column:workshop_id;index"`

	CustomerName string    `gorm:"column:customer_name"`
	BikeModel    string    `gorm:"column:bike_model;not null"`
	ServiceType  string    `gorm:"column:service_type"`
	Date         time.Time `gorm:"column:date;not null"`
	Notes        *string   `gorm:"column:notes;type:text"`

	RequestedPickupDropoff bool     `gorm:"column:requested_pickup_dropoff;not null;default:false"`
	PickupAddress          *string  `gorm:"column:pickup_address"`
	PickupLat              *float64 `gorm:"column:pickup_lat"`
	PickupLng              *float64 `gorm:"column:pickup_lng"`
	DropoffAddress         *string  `gorm:"column:dropoff_address"`
	DropoffLat             *float64 `gorm:"column:dropoff_lat"`
	DropoffLng             *float64 `gorm:"column:dropoff_lng"`

	TotalCost         float64 `gorm:"column:total_cost;not null;check:total_cost >= 0"`
	PickupDropoffCost float64 `gorm:"column:pickup_dropoff_cost;not null;default:0"`
	DiscountApplied   bool    `gorm:"column:discount_applied;not null;default:false"`
	DiscountAmount    float64 `gorm:"column:discount_amount;not null;default:0"`
	FinalAmount       float64 `gorm:"column:final_amount;not null;check:final_amount >= 0"`

	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:Pending"`
	PaymentMethod string `gorm:"column:payment_method;type:varchar(20);not null;default:'Not Selected'"`
	IsPaid        bool   `gorm:"column:is_paid;not null;default:false;index"`
	PointsAwarded int64  `gorm:"column:points_awarded;not null;default:0"`

	Status          string `gorm:"column:status;type:varchar(20);not null;default:Pending;index"`
	ArchivedByAdmin bool   `gorm:"column:archived_by_admin;not null;default:false;index"`
	ReviewSubmitted bool   `gorm:"column:review_submitted;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Workshop *workshopModel `gorm:"foreignKey:WorkshopID;constraint:OnDelete:SET NULL"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	return &domain.Booking{
		ID:                     m.ID,
		CustomerID:             m.CustomerID,
		ServiceID:              m.ServiceID,
		WorkshopID:             m.WorkshopID,
		CustomerName:           m.CustomerName,
		BikeModel:              m.BikeModel,
		ServiceType:            m.ServiceType,
		Date:                   m.Date,
		Notes:                  deref(m.Notes),
		RequestedPickupDropoff: m.RequestedPickupDropoff,
		Pickup:                 domain.Location{Address: deref(m.PickupAddress), Lat: m.PickupLat, Lng: m.PickupLng},
		Dropoff:                domain.Location{Address: deref(m.DropoffAddress), Lat: m.DropoffLat, Lng: m.DropoffLng},
		TotalCost:              m.TotalCost,
		PickupDropoffCost:      m.PickupDropoffCost,
		DiscountApplied:        m.DiscountApplied,
		DiscountAmount:         m.DiscountAmount,
		FinalAmount:            m.FinalAmount,
		PaymentStatus:          domain.PaymentStatus(m.PaymentStatus),
		PaymentMethod:          domain.PaymentMethod(m.PaymentMethod),
		IsPaid:                 m.IsPaid,
		PointsAwarded:          m.PointsAwarded,
		Status:                 domain.BookingStatus(m.Status),
		ArchivedByAdmin:        m.ArchivedByAdmin,
		ReviewSubmitted:        m.ReviewSubmitted,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:                     b.ID,
		CustomerID:             b.CustomerID,
		ServiceID:              b.ServiceID,
		WorkshopID:             b.WorkshopID,
		CustomerName:           b.CustomerName,
		BikeModel:              b.BikeModel,
		ServiceType:            b.ServiceType,
		Date:                   b.Date,
		Notes:                  ptr(b.Notes),
		RequestedPickupDropoff: b.RequestedPickupDropoff,
		PickupAddress:          ptr(b.Pickup.Address),
		PickupLat:              b.Pickup.Lat,
		PickupLng:              b.Pickup.Lng,
		DropoffAddress:         ptr(b.Dropoff.Address),
		DropoffLat:             b.Dropoff.Lat,
		DropoffLng:             b.Dropoff.Lng,
		TotalCost:              b.TotalCost,
		PickupDropoffCost:      b.PickupDropoffCost,
		DiscountApplied:        b.DiscountApplied,
		DiscountAmount:         b.DiscountAmount,
		FinalAmount:            b.FinalAmount,
		PaymentStatus:          string(b.PaymentStatus),
		PaymentMethod:          string(b.PaymentMethod),
		IsPaid:                 b.IsPaid,
		PointsAwarded:          b.PointsAwarded,
		Status:                 string(b.Status),
		ArchivedByAdmin:        b.ArchivedByAdmin,
		ReviewSubmitted:        b.ReviewSubmitted,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, mapError(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(rows), nil
}

// ListForAdmin returns paid, non-archived bookings newest first.
func (r *BookingRepository) ListForAdmin(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error) {
	page, limit := utils.NormalizePage(f.Page, f.Limit)

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_paid = ? AND archived_by_admin = ?", true, false)
		if f.WorkshopID != nil {
			db = db.Where("workshop_id = ?", *f.WorkshopID)
		}
		if s := strings.TrimSpace(f.Search); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			db = db.Where("(LOWER(customer_name) LIKE ? OR LOWER(bike_model) LIKE ? OR LOWER(service_type) LIKE ?)", like, like, like)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&bookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset(utils.CalculateOffset(page, limit)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toDomainBookings(rows), total, nil
}

// Mutate locks the booking, applies fn, then commits the booking write, the
// ledger entries and the payment attempt in one transaction.
func (r *BookingRepository) Mutate(ctx context.Context, id int64, fn MutateFunc) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
			return mapError(err)
		}

		b := toDomainBooking(current)
		plan, err := fn(b)
		if err != nil {
			return err
		}
		if plan == nil {
			plan = &domain.BookingPlan{}
		}

		for _, entry := range plan.Ledger {
			balance, _, err := applyLedgerEntry(tx, entry)
			if err != nil {
				return err
			}
			plan.Balance = balance
		}

		if plan.Attempt != nil {
			a := toPaymentAttemptModel(plan.Attempt)
			a.BookingID = current.ID
			if err := tx.Create(&a).Error; err != nil {
				return mapError(err)
			}
			*plan.Attempt = *toDomainPaymentAttempt(a)
		}

		if plan.Delete {
			if err := tx.Delete(&bookingModel{}, current.ID).Error; err != nil {
				return err
			}
			out = b
			return nil
		}

		next := toBookingModel(b)
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		if err := tx.Save(&next).Error; err != nil {
			return mapError(err)
		}
		out = toDomainBooking(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
