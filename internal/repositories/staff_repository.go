package repositories

import (
	"context"

	"ferreteria/internal/models"
)

// StaffRepository defines the interface for staff account access.
type StaffRepository interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByUsername(ctx context.Context, username string) (*models.Staff, error)
	GetByEmail(ctx context.Context, email string) (*models.Staff, error)
}
