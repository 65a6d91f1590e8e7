package booking

import (
	"context"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/repository"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error)
	ListForAdmin(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error)
	Mutate(ctx context.Context, id int64, fn repository.MutateFunc) (*domain.Booking, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type CatalogRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Workshop, error)
	GetServiceByID(ctx context.Context, id int64) (*domain.Service, error)
}

// PointsReader is the read side of the loyalty ledger.
type PointsReader interface {
	HasAtLeast(ctx context.Context, userID, points int64) (bool, error)
}

type Dispatcher interface {
	Dispatch(effects ...notification.Effect)
}
