package repository

import (
	"context"
	"time"

	"bikeworkshop/internal/domain"

	"gorm.io/gorm"
)

type PaymentAttemptRepository struct {
	db *gorm.DB
}

func NewPaymentAttemptRepository(db *gorm.DB) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{db: db}
}

type paymentAttemptModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	BookingID     int64      `gorm:"column:booking_id;index;not null"`
	Gateway       string     `gorm:"column:gateway;type:varchar(20);not null"`
	Reference     string     `gorm:"column:reference;type:varchar(128);index"`
	Amount        float64    `gorm:"column:amount;not null"`
	Status        string     `gorm:"column:status;type:varchar(20);not null;default:initiated;index"`
	SettledRef    *string    `gorm:"column:settled_ref;type:varchar(160);uniqueIndex"`
	FailureReason string     `gorm:"column:failure_reason;type:text"`
	RawResponse   string     `gorm:"column:raw_response;type:text"`
	VerifiedAt    *time.Time `gorm:"column:verified_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (paymentAttemptModel) TableName() string { return "payment_attempts" }

func toPaymentAttemptModel(a *domain.PaymentAttempt) paymentAttemptModel {
	status := a.Status
	if status == "" {
		status = domain.AttemptInitiated
	}
	return paymentAttemptModel{
		ID:            a.ID,
		BookingID:     a.BookingID,
		Gateway:       string(a.Gateway),
		Reference:     a.Reference,
		Amount:        a.Amount,
		Status:        string(status),
		SettledRef:    a.SettledRef,
		FailureReason: a.FailureReason,
		RawResponse:   a.RawResponse,
		VerifiedAt:    a.VerifiedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toDomainPaymentAttempt(m paymentAttemptModel) *domain.PaymentAttempt {
	return &domain.PaymentAttempt{
		ID:            m.ID,
		BookingID:     m.BookingID,
		Gateway:       domain.PaymentMethod(m.Gateway),
		Reference:     m.Reference,
		Amount:        m.Amount,
		Status:        domain.AttemptStatus(m.Status),
		SettledRef:    m.SettledRef,
		FailureReason: m.FailureReason,
		RawResponse:   m.RawResponse,
		VerifiedAt:    m.VerifiedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *PaymentAttemptRepository) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	m := toPaymentAttemptModel(a)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	*a = *toDomainPaymentAttempt(m)
	return nil
}

func (r *PaymentAttemptRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.PaymentAttempt, error) {
	var rows []paymentAttemptModel
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.PaymentAttempt, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainPaymentAttempt(m))
	}
	return out, nil
}

// ExpireStale marks initiated attempts older than cutoff as expired.
func (r *PaymentAttemptRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&paymentAttemptModel{}).
		Where("status = ? AND created_at < ?", string(domain.AttemptInitiated), cutoff).
		Updates(map[string]interface{}{
			"status":         string(domain.AttemptExpired),
			"failure_reason": "expired before verification",
		})
	return res.RowsAffected, res.Error
}
