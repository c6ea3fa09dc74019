package db

import (
	"fmt"

	"github.com/jamigibbs/slack-planning-poker/internal/models"
	"gorm.io/gorm"
)

// AllModels returns all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Session{},
		&models.Vote{},
		&models.TeamInstallation{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
