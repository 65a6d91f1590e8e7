package auth

import (
	"context"
	"errors"
	"strings"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/pkg/validator"
	"bikeworkshop/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service contains the account logic: registration, login and profile reads.
type Service struct {
	users UserRepository
	jwt   TokenIssuer
	cost  int
	log   *zap.Logger
}

func NewService(users UserRepository, jwt TokenIssuer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, jwt: jwt, cost: bcrypt.DefaultCost, log: log.With(zap.String("module", "auth"))}
}

// Register creates a customer account. Admin accounts come from the seed
// command only.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := validator.Validate(&req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs))
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to hash password"), err)
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, apperr.Wrap(apperr.Internal("failed to create user"), err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if errs := validator.Validate(&req); errs != nil {
		return nil, apperr.Validation(validator.Summary(errs))
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Wrap(apperr.Internal("failed to load user"), err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to issue token"), err)
	}
	return &LoginResponse{Token: token, User: NewUserResponse(user)}, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Wrap(apperr.Internal("failed to load user"), err)
	}
	return user, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
