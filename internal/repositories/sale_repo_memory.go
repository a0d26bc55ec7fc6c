package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"ferreteria/internal/models"

	"github.com/google/uuid"
)

// MemorySaleRepository is an in-memory implementation of SaleRepository.
type MemorySaleRepository struct {
	sales map[string]models.Sale
	mu    sync.RWMutex
}

// NewMemorySaleRepository creates a new instance of MemorySaleRepository.
func NewMemorySaleRepository() *MemorySaleRepository {
	return &MemorySaleRepository{
		sales: make(map[string]models.Sale),
	}
}

// GetAll returns all sales, oldest first.
func (r *MemorySaleRepository) GetAll(ctx context.Context) ([]models.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	saleList := make([]models.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		saleList = append(saleList, sale)
	}
	sort.SliceStable(saleList, func(i, j int) bool {
		return saleList[i].CreatedAt.Before(saleList[j].CreatedAt)
	})
	return saleList, nil
}

// Create adds a new sale.
func (r *MemorySaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	r.sales[sale.ID] = *sale
	return nil
}
