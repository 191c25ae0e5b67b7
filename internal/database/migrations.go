package database

import (
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Family{},
		&models.FamilyMember{},
		&models.Pet{},
		&models.PetShareRequest{},
		&models.Notification{},
		&models.NotificationRead{},
		&models.Walk{},
		&models.WalkTrackingPoint{},
		&models.Photo{},
		&models.PetWalkRecommendation{},
		&models.PetWalkGoal{},
	)
}
