package auth

import (
	"context"

	"bikeworkshop/internal/domain"
)

// UserRepository is the part of the user store auth needs.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}
