package domain

import "time"

type Workshop struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email,omitempty"`
	Phone                  string    `json:"phone,omitempty"`
	Address                string    `json:"address"`
	Lat                    float64   `json:"lat"`
	Lng                    float64   `json:"lng"`
	PickupDropoffAvailable bool      `json:"pickup_dropoff_available"`
	PickupDropoffCostPerKm float64   `json:"pickup_dropoff_cost_per_km"`
	CreatedAt              time.Time `json:"created_at"`
}

func (w *Workshop) HasCoordinates() bool {
	return w.Lat != 0 || w.Lng != 0
}

// Service is a priced offering of a workshop.
type Service struct {
	ID          int64     `json:"id"`
	WorkshopID  int64     `json:"workshop_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}
