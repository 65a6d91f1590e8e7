package repository

import (
	"context"
	"time"

	"bikeworkshop/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

type loyaltyTxModel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;index"`
	BookingID    *int64    `gorm:"column:booking_id;index"`
	Points       int64     `gorm:"column:points;not null"`
	Type         string    `gorm:"column:type;type:varchar(16);not null;index;check:type IN ('EARN','REDEEM','REFUND','REVERSAL')"`
	BalanceAfter int64     `gorm:"column:balance_after;not null"`
	Note         string    `gorm:"column:note"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	User *userModel `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (loyaltyTxModel) TableName() string { return "loyalty_transactions" }

func (t *loyaltyTxModel) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func toDomainLoyaltyTx(m loyaltyTxModel) domain.LoyaltyTransaction {
	return domain.LoyaltyTransaction{
		ID:           m.ID,
		UserID:       m.UserID,
		BookingID:    m.BookingID,
		Points:       m.Points,
		Type:         domain.LoyaltyTxType(m.Type),
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
	}
}

// Apply runs one ledger entry in its own transaction and returns the new
// balance. The recorded transaction is nil when a reversal found nothing to
// take back.
func (r *LoyaltyRepository) Apply(ctx context.Context, entry domain.LedgerEntry) (int64, *domain.LoyaltyTransaction, error) {
	var (
		balance int64
		rec     *domain.LoyaltyTransaction
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, rec, err = applyLedgerEntry(tx, entry)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return balance, rec, nil
}

func (r *LoyaltyRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	var u userModel
	if err := r.db.WithContext(ctx).Select("id", "loyalty_points").First(&u, userID).Error; err != nil {
		return 0, mapError(err)
	}
	return u.LoyaltyPoints, nil
}

func (r *LoyaltyRepository) History(ctx context.Context, userID int64, limit int) ([]domain.LoyaltyTransaction, error) {
	var rows []loyaltyTxModel
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.LoyaltyTransaction, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainLoyaltyTx(m))
	}
	return out, nil
}

// applyLedgerEntry must run inside tx. It locks the user row, so concurrent
// entries for one user are serialised.
func applyLedgerEntry(tx *gorm.DB, e domain.LedgerEntry) (int64, *domain.LoyaltyTransaction, error) {
	if e.Points <= 0 {
		return 0, nil, ErrInvalidPoints
	}

	var u userModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "loyalty_points").
		First(&u, e.UserID).Error
	if err != nil {
		return 0, nil, mapError(err)
	}

	applied := e.Points
	balance := u.LoyaltyPoints
	switch e.Type {
	case domain.LoyaltyEarn, domain.LoyaltyRefund:
		balance += applied
	case domain.LoyaltyRedeem:
		if balance < applied {
			return balance, nil, ErrInsufficientPoints
		}
		balance -= applied
	case domain.LoyaltyReversal:
		if applied > balance {
			applied = balance
		}
		balance -= applied
	default:
		return 0, nil, ErrInvalidPoints
	}

	if applied == 0 {
		return balance, nil, nil
	}

	if err := tx.Model(&userModel{}).Where("id = ?", u.ID).Update("loyalty_points", balance).Error; err != nil {
		return 0, nil, err
	}

	m := loyaltyTxModel{
		UserID:       u.ID,
		BookingID:    e.BookingID,
		Points:       applied,
		Type:         string(e.Type),
		BalanceAfter: balance,
		Note:         e.Note,
	}
	if err := tx.Create(&m).Error; err != nil {
		return 0, nil, err
	}
	rec := toDomainLoyaltyTx(m)
	return balance, &rec, nil
}
