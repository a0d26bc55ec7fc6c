package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/models"
	"ferreteria/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService handles storefront purchases.
type SaleService struct {
	store     *CatalogStore
	saleRepo  repositories.SaleRepository
	publisher EventPublisher
}

// NewSaleService creates a new SaleService. publisher may be nil.
func NewSaleService(store *CatalogStore, saleRepo repositories.SaleRepository, publisher EventPublisher) *SaleService {
	return &SaleService{
		store:     store,
		saleRepo:  saleRepo,
		publisher: publisher,
	}
}

// GetAllSales retrieves all recorded sales.
func (s *SaleService) GetAllSales(ctx context.Context) ([]models.Sale, error) {
	sales, err := s.saleRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w: %w", ErrRemoteUnavailable, err)
	}
	return sales, nil
}

// Purchase sells quantity units of a product: stock is decremented through
// the catalog store and the sale is recorded at the current price.
func (s *SaleService) Purchase(ctx context.Context, productID string, quantity int) (*models.Sale, error) {
	if quantity < 1 {
		return nil, &ValidationError{Fields: map[string]string{"quantity": "must be at least 1"}}
	}

	product, ok := s.store.Get(productID)
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	if product.StockQuantity < quantity {
		return nil, fmt.Errorf("%s (requested: %d, available: %d): %w",
			product.ProductName, quantity, product.StockQuantity, ErrInsufficientStock)
	}

	updated, err := s.store.AdjustStock(ctx, productID, -quantity)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		ID:          uuid.New().String(),
		ProductID:   productID,
		ProductName: updated.ProductName,
		Quantity:    quantity,
		UnitPrice:   updated.Price,
		Total:       updated.Price * float64(quantity),
		CreatedAt:   time.Now(),
	}
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		zap.L().Error("failed to record sale, restoring stock", zap.String("product_id", productID), zap.Error(err))
		if _, restoreErr := s.store.AdjustStock(ctx, productID, quantity); restoreErr != nil {
			zap.L().Error("failed to restore stock", zap.String("product_id", productID), zap.Error(restoreErr))
			err = errors.Join(err, restoreErr)
		}
		return nil, fmt.Errorf("record sale: %w: %w", ErrRemoteUnavailable, err)
	}

	zap.L().Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	publishEvent(s.publisher, CatalogEvent{Type: EventSaleRecorded, ProductID: productID, Sale: sale})
	return sale, nil
}
