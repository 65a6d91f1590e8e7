package domain

import "time"

type UserRole string

const (
	RoleCustomer   UserRole = "customer"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          UserRole  `json:"role"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	WorkshopID    *int64    `json:"workshop_id,omitempty"`
	LoyaltyPoints int64     `json:"loyalty_points"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanManage reports whether the user may administer bookings of the workshop.
func (u *User) CanManage(b *Booking) bool {
	switch u.Role {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return b.InWorkshop(u.WorkshopID)
	default:
		return false
	}
}
