package domain

import (
	"time"

	"github.com/google/uuid"
)

type LoyaltyTxType string

const (
	// LoyaltyEarn credits points awarded for a payment.
	LoyaltyEarn LoyaltyTxType = "EARN"
	// LoyaltyRedeem is a strict debit: it fails instead of going below zero.
	LoyaltyRedeem LoyaltyTxType = "REDEEM"
	// LoyaltyRefund credits back redeemed points.
	LoyaltyRefund LoyaltyTxType = "REFUND"
	// LoyaltyReversal takes back awarded points, floored at zero.
	LoyaltyReversal LoyaltyTxType = "REVERSAL"
)

// IsCredit reports whether the type increases the balance.
func (t LoyaltyTxType) IsCredit() bool {
	return t == LoyaltyEarn || t == LoyaltyRefund
}

// LedgerEntry is a pending balance change.
type LedgerEntry struct {
	UserID    int64
	BookingID *int64
	Points    int64
	Type      LoyaltyTxType
	Note      string
}

type LoyaltyTransaction struct {
	ID           uuid.UUID     `json:"id"`
	UserID       int64         `json:"user_id"`
	BookingID    *int64        `json:"booking_id,omitempty"`
	Points       int64         `json:"points"`
	Type         LoyaltyTxType `json:"type"`
	BalanceAfter int64         `json:"balance_after"`
	Note         string        `json:"note,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}
