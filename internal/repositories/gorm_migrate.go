package repositories

import (
	"fmt"

	"ferreteria/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table used by the GORM repositories.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&productRow{}, &models.Sale{}, &models.Staff{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
