package catalog

import "bikeworkshop/internal/domain"

type WorkshopListResponse struct {
	Workshops []domain.Workshop `json:"workshops"`
}

type ServiceListResponse struct {
	Workshop *domain.Workshop `json:"workshop"`
	Services []domain.Service `json:"services"`
}
