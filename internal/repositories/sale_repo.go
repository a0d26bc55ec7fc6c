package repositories

import (
	"context"

	"ferreteria/internal/models"
)

// SaleRepository defines the interface for sale data access.
type SaleRepository interface {
	GetAll(ctx context.Context) ([]models.Sale, error)
	Create(ctx context.Context, sale *models.Sale) error
}
