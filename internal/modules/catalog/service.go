package catalog

import (
	"context"
	"errors"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/repository"
)

var ErrWorkshopNotFound = apperr.NotFound("Workshop not found")

type WorkshopRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Workshop, error)
	List(ctx context.Context) ([]domain.Workshop, error)
	ListServices(ctx context.Context, workshopID int64) ([]domain.Service, error)
}

// Service is the read-only view over workshops and their priced services.
type Service struct {
	workshops WorkshopRepository
}

func NewService(workshops WorkshopRepository) *Service {
	return &Service{workshops: workshops}
}

func (s *Service) Workshops(ctx context.Context) (*WorkshopListResponse, error) {
	list, err := s.workshops.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to list workshops"), err)
	}
	return &WorkshopListResponse{Workshops: list}, nil
}

func (s *Service) Services(ctx context.Context, workshopID int64) (*ServiceListResponse, error) {
	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkshopNotFound
		}
		return nil, apperr.Wrap(apperr.Internal("failed to load workshop"), err)
	}
	list, err := s.workshops.ListServices(ctx, workshopID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal("failed to list services"), err)
	}
	return &ServiceListResponse{Workshop: w, Services: list}, nil
}
