package repositories

import (
	"context"
	"fmt"
	"sync"

	"ferreteria/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory document collection. Documents are
// listed in insertion order.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	order    []string
	products map[string]models.Product
}

// NewMemoryProductRepository creates an empty in-memory collection.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns all documents.
func (r *MemoryProductRepository) List(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		productList = append(productList, r.products[id])
	}
	return productList, nil
}

// Add stores a document. A preset ID is kept, which lets callers seed fixtures.
func (r *MemoryProductRepository) Add(ctx context.Context, product models.Product) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return "", fmt.Errorf("document %s already exists", product.ID)
	}
	r.order = append(r.order, product.ID)
	r.products[product.ID] = product
	return product.ID, nil
}

// Update replaces the fields of an existing document.
func (r *MemoryProductRepository) Update(ctx context.Context, id string, product models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	product.ID = id
	r.products[id] = product
	return nil
}

// Delete removes a document by its ID.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
