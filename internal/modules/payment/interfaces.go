package payment

import (
	"context"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/pkg/esewa"
	"bikeworkshop/internal/pkg/khalti"
	"bikeworkshop/internal/repository"
)

type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Mutate(ctx context.Context, id int64, fn repository.MutateFunc) (*domain.Booking, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, a *domain.PaymentAttempt) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type KhaltiVerifier interface {
	Verify(ctx context.Context, token string, amount int64) (*khalti.Verification, error)
}

type EsewaChecker interface {
	CheckStatus(ctx context.Context, transactionUUID string, totalAmount float64) (*esewa.Status, error)
}

type Dispatcher interface {
	Dispatch(effects ...notification.Effect)
}
