package loyalty

import (
	"context"

	"bikeworkshop/internal/domain"
)

// LedgerRepository is implemented by repository.LoyaltyRepository.
type LedgerRepository interface {
	Apply(ctx context.Context, entry domain.LedgerEntry) (int64, *domain.LoyaltyTransaction, error)
	Balance(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64, limit int) ([]domain.LoyaltyTransaction, error)
}
