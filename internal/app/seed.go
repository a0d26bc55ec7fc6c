package app

import (
	"context"
	"fmt"

	"ferreteria/internal/models"
	"ferreteria/internal/repositories"

	"go.uber.org/zap"
)

// SeedProducts is the starter inventory loaded into an empty collection.
var SeedProducts = []models.Product{
	{ProductName: "Taladro percutor", Description: "Taladro percutor 650W con maletin", Brand: "Bosch", Price: 89.90, StockQuantity: 12, Category: models.CategoryTools},
	{ProductName: "Martillo de una", Description: "Martillo de una 16oz mango de fibra", Brand: "Stanley", Price: 14.50, StockQuantity: 40, Category: models.CategoryTools},
	{ProductName: "Cable THW 12 AWG", Description: "Rollo de cable 100m", Brand: "Indeco", Price: 62.00, StockQuantity: 18, Category: models.CategoryElectrical},
	{ProductName: "Llave de paso 1/2", Description: "Llave de paso de bronce", Brand: "Vainsa", Price: 9.75, StockQuantity: 35, Category: models.CategoryPlumbing},
	{ProductName: "Pintura latex blanco", Description: "Galon de pintura latex lavable", Brand: "Vencedor", Price: 21.30, StockQuantity: 24, Category: models.CategoryPaint},
	{ProductName: "Cemento portland", Description: "Bolsa de 42.5kg", Brand: "Sol", Price: 7.90, StockQuantity: 120, Category: models.CategoryConstruction},
	{ProductName: "Tornillo drywall", Description: "Caja de 100 tornillos 6x1", Brand: "Fixser", Price: 3.20, StockQuantity: 75, Category: models.CategoryFasteners},
}

// Seed loads SeedProducts when the collection is empty and reports how many
// documents were added.
func Seed(ctx context.Context, repo repositories.ProductRepository) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products before seeding: %w", err)
	}
	if len(existing) > 0 {
		zap.S().Infof("Collection already holds %d products, skipping seed", len(existing))
		return 0, nil
	}

	added := 0
	for _, product := range SeedProducts {
		product.Normalize()
		id, err := repo.Add(ctx, product)
		if err != nil {
			return added, fmt.Errorf("failed to seed product %s: %w", product.ProductName, err)
		}
		added++
		zap.S().Debugf("Seeded product: %s (ID: %s)", product.ProductName, id)
	}
	return added, nil
}
