package repository

import (
	"context"
	"time"

	"bikeworkshop/internal/domain"

	"gorm.io/gorm"
)

type WorkshopRepository struct {
	db *gorm.DB
}

func NewWorkshopRepository(db *gorm.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

type workshopModel struct {
	ID                     int64     `gorm:"column:id;primaryKey"`
	Name                   string    `gorm:"column:name;not null"`
	Email                  string    `gorm:"column:email"`
	Phone                  string    `gorm:"column:phone"`
	Address                string    `gorm:"column:address"`
	Lat                    float64   `gorm:"column:lat"`
	Lng                    float64   `gorm:"column:lng"`
	PickupDropoffAvailable bool      `gorm:"column:pickup_dropoff_available;not null;default:false"`
	PickupDropoffCostPerKm float64   `gorm:"column:pickup_dropoff_cost_per_km;not null;default:0"`
	CreatedAt              time.Time `gorm:"column:created_at"`
}

func (workshopModel) TableName() string { return "workshops" }

type serviceModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	WorkshopID  int64     `gorm:"column:workshop_id;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;type:text"`
	Price       float64   `gorm:"column:price;not null;check:price >= 0"`
	CreatedAt   time.Time `gorm:"column:created_at"`

	Workshop *workshopModel `gorm:"foreignKey:WorkshopID;constraint:OnDelete:CASCADE"`
}

func (serviceModel) TableName() string { return "services" }

func toDomainWorkshop(m workshopModel) *domain.Workshop {
	return &domain.Workshop{
		ID:                     m.ID,
		Name:                   m.Name,
		Email:                  m.Email,
		Phone:                  m.Phone,
		Address:                m.Address,
		Lat:                    m.Lat,
		Lng:                    m.Lng,
		PickupDropoffAvailable: m.PickupDropoffAvailable,
		PickupDropoffCostPerKm: m.PickupDropoffCostPerKm,
		CreatedAt:              m.CreatedAt,
	}
}

func toDomainService(m serviceModel) *domain.Service {
	return &domain.Service{
		ID:          m.ID,
		WorkshopID:  m.WorkshopID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		CreatedAt:   m.CreatedAt,
	}
}

func (r *WorkshopRepository) Create(ctx context.Context, w *domain.Workshop) error {
	m := workshopModel{
		Name:                   w.Name,
		Email:                  w.Email,
		Phone:                  w.Phone,
		Address:                w.Address,
		Lat:                    w.Lat,
		Lng:                    w.Lng,
		PickupDropoffAvailable: w.PickupDropoffAvailable,
		PickupDropoffCostPerKm: w.PickupDropoffCostPerKm,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	*w = *toDomainWorkshop(m)
	return nil
}

func (r *WorkshopRepository) GetByID(ctx context.Context, id int64) (*domain.Workshop, error) {
	var m workshopModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, mapError(err)
	}
	return toDomainWorkshop(m), nil
}

func (r *WorkshopRepository) List(ctx context.Context) ([]domain.Workshop, error) {
	var rows []workshopModel
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Workshop, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainWorkshop(m))
	}
	return out, nil
}

func (r *WorkshopRepository) CreateService(ctx context.Context, s *domain.Service) error {
	m := serviceModel{
		WorkshopID:  s.WorkshopID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	*s = *toDomainService(m)
	return nil
}

func (r *WorkshopRepository) GetServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	var m serviceModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, mapError(err)
	}
	return toDomainService(m), nil
}

func (r *WorkshopRepository) ListServices(ctx context.Context, workshopID int64) ([]domain.Service, error) {
	var rows []serviceModel
	err := r.db.WithContext(ctx).Where("workshop_id = ?", workshopID).Order("name").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Service, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainService(m))
	}
	return out, nil
}
