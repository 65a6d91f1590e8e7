package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by this package.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&workshopModel{},
		&userModel{},
		&serviceModel{},
		&bookingModel{},
		&loyaltyTxModel{},
		&paymentAttemptModel{},
	)
}
