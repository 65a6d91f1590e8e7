package loyalty

import "bikeworkshop/internal/domain"

type SummaryResponse struct {
	LoyaltyPoints int64                       `json:"loyaltyPoints"`
	Transactions  []domain.LoyaltyTransaction `json:"transactions"`
}
