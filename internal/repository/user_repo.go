package repository

import (
	"context"
	"strings"
	"time"

	"bikeworkshop/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	Email         string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	Role          string    `gorm:"column:role;type:varchar(20);not null;default:customer;index"`
	Name          string    `gorm:"column:name;not null"`
	Phone         *string   `gorm:"column:phone"`
	WorkshopID    *int64    `gorm:"column:workshop_id;index"`
	LoyaltyPoints int64     `gorm:"column:loyalty_points;not null;default:0;check:loyalty_points >= 0"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	var phone string
	if m.Phone != nil {
		phone = *m.Phone
	}

	return &domain.User{
		ID:            m.ID,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		Role:          domain.UserRole(m.Role),
		Name:          m.Name,
		Phone:         phone,
		WorkshopID:    m.WorkshopID,
		LoyaltyPoints: m.LoyaltyPoints,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	var phone *string
	if u.Phone != "" {
		v := u.Phone
		phone = &v
	}
	role := u.Role
	if role == "" {
		role = domain.RoleCustomer
	}

	return userModel{
		ID:            u.ID,
		Email:         strings.TrimSpace(strings.ToLower(u.Email)),
		PasswordHash:  u.PasswordHash,
		Role:          string(role),
		Name:          u.Name,
		Phone:         phone,
		WorkshopID:    u.WorkshopID,
		LoyaltyPoints: u.LoyaltyPoints,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return mapError(err)
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, mapError(err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		First(&m).Error
	if err != nil {
		return nil, mapError(err)
	}
	return toDomainUser(m), nil
}
