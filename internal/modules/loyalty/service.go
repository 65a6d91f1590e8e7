package loyalty

import (
	"context"
	"errors"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/repository"

	"go.uber.org/zap"
)

const defaultHistoryLimit = 20

type Service struct {
	ledger LedgerRepository
	log    *zap.Logger
}

func NewService(ledger LedgerRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{ledger: ledger, log: log.With(zap.String("module", "loyalty"))}
}

// Credit adds points. The entry type must be EARN or REFUND.
func (s *Service) Credit(ctx context.Context, entry domain.LedgerEntry) (int64, error) {
	if !entry.Type.IsCredit() {
		return 0, ErrWrongEntryType
	}
	return s.apply(ctx, entry)
}

// Debit removes up to entry.Points, stopping at zero.
func (s *Service) Debit(ctx context.Context, entry domain.LedgerEntry) (int64, error) {
	if entry.Type == "" {
		entry.Type = domain.LoyaltyReversal
	}
	if entry.Type != domain.LoyaltyReversal {
		return 0, ErrWrongEntryType
	}
	return s.apply(ctx, entry)
}

// Redeem removes exactly entry.Points or fails with ErrInsufficientPoints.
func (s *Service) Redeem(ctx context.Context, entry domain.LedgerEntry) (int64, error) {
	entry.Type = domain.LoyaltyRedeem
	return s.apply(ctx, entry)
}

func (s *Service) HasAtLeast(ctx context.Context, userID, points int64) (bool, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= points, nil
}

func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, MapLedgerError(err)
	}
	return balance, nil
}

func (s *Service) Summary(ctx context.Context, userID int64, limit int) (*SummaryResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultHistoryLimit
	}
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.ledger.History(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to load loyalty history"), err)
	}
	return &SummaryResponse{LoyaltyPoints: balance, Transactions: history}, nil
}

func (s *Service) apply(ctx context.Context, entry domain.LedgerEntry) (int64, error) {
	balance, rec, err := s.ledger.Apply(ctx, entry)
	if err != nil {
		return 0, MapLedgerError(err)
	}
	if rec != nil {
		s.log.Info("loyalty ledger entry",
			zap.Int64("user_id", entry.UserID),
			zap.String("type", string(rec.Type)),
			zap.Int64("points", rec.Points),
			zap.Int64("balance", balance),
		)
	}
	return balance, nil
}

// MapLedgerError turns repository ledger failures into API errors. Booking
// and payment flows share it because they write ledger entries through the
// booking unit of work.
func MapLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInsufficientPoints):
		return ErrInsufficientPoints
	case errors.Is(err, repository.ErrInvalidPoints):
		return ErrInvalidPoints
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	default:
		if _, ok := apperr.As(err); ok {
			return err
		}
		return apperr.Wrap(apperr.Internal("loyalty ledger failure"), err)
	}
}
