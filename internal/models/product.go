package models

// DefaultImageURL is stored when a product is registered without a picture.
const DefaultImageURL = "https://example.com/default-image.png"

// Category is one of the fixed labels a product can be filed under.
type Category string

const (
	CategoryUncategorized Category = "sin_categoria"
	CategoryTools         Category = "herramientas"
	CategoryElectrical    Category = "electricidad"
	CategoryPlumbing      Category = "plomeria"
	CategoryPaint         Category = "pinturas"
	CategoryConstruction  Category = "construccion"
	CategoryGarden        Category = "jardineria"
	CategoryFasteners     Category = "tornilleria"
)

// Categories lists every selectable category, the default last.
var Categories = []Category{
	CategoryTools,
	CategoryElectrical,
	CategoryPlumbing,
	CategoryPaint,
	CategoryConstruction,
	CategoryGarden,
	CategoryFasteners,
	CategoryUncategorized,
}

// ParseCategory maps a label to a Category. Blank labels map to the default.
func ParseCategory(label string) (Category, bool) {
	if label == "" {
		return CategoryUncategorized, true
	}
	for _, c := range Categories {
		if string(c) == label {
			return c, true
		}
	}
	return "", false
}

// Product is a document of the colecProductos collection. Field names match
// the keys stored by the mobile app so existing documents decode unchanged.
type Product struct {
	ID            string   `json:"id" bson:"-"`
	ProductName   string   `json:"productName" bson:"productName"`
	Description   string   `json:"description" bson:"description"`
	Brand         string   `json:"brand" bson:"brand"`
	Price         float64  `json:"price" bson:"price"`
	StockQuantity int      `json:"stockQuantity" bson:"stockQuantity"`
	ImageURL      string   `json:"imageUrl" bson:"imageUrl"`
	Category      Category `json:"category,omitempty" bson:"category,omitempty"`
}

// Normalize fills the defaults of optional fields.
func (p *Product) Normalize() {
	if p.ImageURL == "" {
		p.ImageURL = DefaultImageURL
	}
	if p.Category == "" {
		p.Category = CategoryUncategorized
	}
}
