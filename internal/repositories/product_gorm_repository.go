package repositories

import (
	"context"
	"fmt"
	"time"

	"ferreteria/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// productRow is the SQL shape of a catalog document.
type productRow struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	ProductName   string `gorm:"type:varchar(200);not null"`
	Description   string
	Brand         string `gorm:"type:varchar(100)"`
	Price         float64
	StockQuantity int
	ImageURL      string `gorm:"type:varchar(1024)"`
	Category      string `gorm:"type:varchar(32)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (productRow) TableName() string { return "colec_productos" }

func toProductRow(id string, p models.Product) productRow {
	return productRow{
		ID:            id,
		ProductName:   p.ProductName,
		Description:   p.Description,
		Brand:         p.Brand,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Category:      string(p.Category),
	}
}

func (r productRow) toModel() models.Product {
	return models.Product{
		ID:            r.ID,
		ProductName:   r.ProductName,
		Description:   r.Description,
		Brand:         r.Brand,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
		Category:      models.Category(r.Category),
	}
}

// GORMProductRepository keeps the catalog in a SQL table through GORM.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves all products from the database.
func (r *GORMProductRepository) List(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, nil
}

// Add creates a new product in the database.
func (r *GORMProductRepository) Add(ctx context.Context, product models.Product) (string, error) {
	id := product.ID
	if id == "" {
		id = uuid.New().String()
	}
	row := toProductRow(id, product)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

// Update overwrites every field of an existing product, zero values included.
func (r *GORMProductRepository) Update(ctx context.Context, id string, product models.Product) error {
	row := toProductRow(id, product)
	res := r.db.WithContext(ctx).
		Model(&productRow{}).
		Where("id = ?", id).
		Select("product_name", "description", "brand", "price", "stock_quantity", "image_url", "category").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}
