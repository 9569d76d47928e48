package database

import (
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Session{},
		&models.MFASecret{},
		&models.InviteToken{},
		&models.Profile{},
		&models.Connection{},
		&models.Publication{},
		&models.Notification{},
		&models.AuditLog{},
		&models.CacheEntry{},
		&models.SystemSetting{},
	)
}

// SeedData inserts the system roles when missing.
func SeedData(db *gorm.DB) error {
	roles := []models.Role{
		{
			BaseModel:   models.BaseModel{ID: models.RoleAdmin},
			Name:        "Administrator",
			Description: "Reviews registrations and manages invitations",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: models.RoleUser},
			Name:        "Member",
			Description: "Approved advisor or laboratory",
			IsSystem:    true,
		},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{BaseModel: models.BaseModel{ID: role.ID}}).Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}
	return nil
}
