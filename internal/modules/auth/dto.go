package auth

import "bikeworkshop/internal/domain"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Role          string `json:"role"`
	WorkshopID    *int64 `json:"workshop_id,omitempty"`
	LoyaltyPoints int64  `json:"loyaltyPoints"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		Role:          string(u.Role),
		WorkshopID:    u.WorkshopID,
		LoyaltyPoints: u.LoyaltyPoints,
	}
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
