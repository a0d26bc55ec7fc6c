package handlers

import (
	"fmt"

	"ferreteria/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ViewConfig parameterizes the product view. The storefront and the
// management screen share one handler and differ only in what they allow.
type ViewConfig struct {
	// Name is the route segment the view is mounted under.
	Name          string
	// Editable enables create, update, delete and refresh.
	Editable      bool
	AllowPurchase bool
}

var (
	StorefrontView = ViewConfig{Name: "store", AllowPurchase: true}
	ManagementView = ViewConfig{Name: "manage", Editable: true}
)

// ProductHandler handles HTTP requests for one view of the catalog.
type ProductHandler struct {
	store *services.CatalogStore
	sales *services.SaleService
	view  ViewConfig
}

// NewProductHandler creates a handler for view. sales may be nil when the
// view does not allow purchases.
func NewProductHandler(store *services.CatalogStore, sales *services.SaleService, view ViewConfig) *ProductHandler {
	return &ProductHandler{
		store: store,
		sales: sales,
		view:  view,
	}
}

// RegisterRoutes mounts the view's product routes under router/products.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")

	productRoutes.Get("/", h.HandleListProducts)
	if h.view.Editable {
		productRoutes.Post("/refresh", h.HandleRefresh)
		productRoutes.Post("/", h.HandleCreateProduct)
		productRoutes.Put("/:id", h.HandleUpdateProduct)
		productRoutes.Delete("/:id", h.HandleDeleteProduct)
	}
	if h.view.AllowPurchase && h.sales != nil {
		productRoutes.Post("/:id/purchase", h.HandlePurchase)
	}
	productRoutes.Get("/:id", h.HandleGetProduct)
}

// HandleListProducts returns the catalog filtered by the q query parameter.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	c.Set("X-Catalog-State", h.store.State().String())
	return c.JSON(h.store.Filter(c.Query("q")))
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	product, ok := h.store.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", id),
		})
	}
	return c.JSON(product)
}

// HandleRefresh re-fetches the catalog from the backend.
func (h *ProductHandler) HandleRefresh(c *fiber.Ctx) error {
	if err := h.store.FetchAll(c.UserContext()); err != nil {
		return writeError(c, "Could not refresh the catalog", err)
	}
	return c.JSON(fiber.Map{
		"message":  "Catalog refreshed",
		"products": len(h.store.Snapshot()),
	})
}

// HandleCreateProduct registers a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var form services.ProductForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, err := h.store.Create(c.UserContext(), form)
	if err != nil {
		return writeError(c, "Could not register product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var form services.ProductForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, err := h.store.Update(c.UserContext(), id, form)
	if err != nil {
		return writeError(c, "Could not update product", err)
	}
	if product == nil {
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Product %s is not in the catalog, nothing was updated", id),
		})
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product. Unknown ids succeed.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.Delete(c.UserContext(), id); err != nil {
		return writeError(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", id),
	})
}

type purchaseRequest struct {
	Quantity int `json:"quantity"`
}

// HandlePurchase sells units of a product. The quantity defaults to one.
func (h *ProductHandler) HandlePurchase(c *fiber.Ctx) error {
	req := purchaseRequest{Quantity: 1}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	sale, err := h.sales.Purchase(c.UserContext(), c.Params("id"), req.Quantity)
	if err != nil {
		return writeError(c, "Could not complete the purchase", err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}
