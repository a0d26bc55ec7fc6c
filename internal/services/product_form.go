package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"ferreteria/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldValue is a raw form input. It decodes from a JSON string or a JSON
// number, so clients may send either "50" or 50.
type FieldValue string

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FieldValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FieldValue(n.String())
	return nil
}

// FormMode selects the rules applied by ProductForm.Parse.
type FormMode int

const (
	// CreateMode requires a product name, and a category when configured.
	// Blank numbers default to zero.
	CreateMode FormMode = iota
	// UpdateMode requires name, description, brand, price and stock.
	UpdateMode
)

// ProductForm is a product as submitted by a client, before coercion.
type ProductForm struct {
	ProductName   FieldValue `json:"productName"`
	Description   FieldValue `json:"description"`
	Brand         FieldValue `json:"brand"`
	Price         FieldValue `json:"price"`
	StockQuantity FieldValue `json:"stockQuantity"`
	ImageURL      FieldValue `json:"imageUrl"`
	Category      FieldValue `json:"category"`
}

var formValidator = validator.New()

// Bounds of the numeric fields. They keep a stored value representable as a
// finite JSON number and as a column of the SQL backends.
var (
	MaxPrice = decimal.NewFromInt(1_000_000_000)
	MaxStock = decimal.NewFromInt(math.MaxInt32)
)

// Length limits match the columns of the SQL collection.
var fieldLimits = map[string]string{
	"productName": "max=200",
	"brand":       "max=100",
	"imageUrl":    "max=1024",
}

// Parse validates the form and coerces it into a product. It returns either
// a complete product or a *ValidationError, never a partially coerced record.
// In UpdateMode a blank imageUrl or category is left blank so the caller can
// keep the stored value.
func (f ProductForm) Parse(mode FormMode, requireCategory bool) (models.Product, error) {
	verr := &ValidationError{}
	trim := func(v FieldValue) string { return strings.TrimSpace(string(v)) }

	name := trim(f.ProductName)
	description := trim(f.Description)
	brand := trim(f.Brand)
	price := trim(f.Price)
	stock := trim(f.StockQuantity)
	category := trim(f.Category)

	required := map[string]string{"productName": name}
	if mode == UpdateMode {
		required["description"] = description
		required["brand"] = brand
		required["price"] = price
		required["stockQuantity"] = stock
	}
	if mode == CreateMode && requireCategory {
		required["category"] = category
	}
	for fieldName, value := range required {
		if err := formValidator.Var(value, "required"); err != nil {
			verr.add(fieldName, "is required")
		}
	}
	limited := map[string]string{"productName": name, "brand": brand, "imageUrl": trim(f.ImageURL)}
	for fieldName, value := range limited {
		if err := formValidator.Var(value, fieldLimits[fieldName]); err != nil {
			verr.add(fieldName, "is too long")
		}
	}

	product := models.Product{
		ProductName: name,
		Description: description,
		Brand:       brand,
		ImageURL:    trim(f.ImageURL),
	}

	if price != "" {
		d, err := decimal.NewFromString(price)
		switch {
		case err != nil:
			verr.add("price", "must be a decimal number")
		case d.IsNegative():
			verr.add("price", "must not be negative")
		case d.GreaterThan(MaxPrice):
			verr.add("price", "must not exceed "+MaxPrice.String())
		default:
			product.Price = d.InexactFloat64()
		}
	}

	if stock != "" {
		d, err := decimal.NewFromString(stock)
		switch {
		case err != nil || !d.IsInteger():
			verr.add("stockQuantity", "must be a whole number")
		case d.IsNegative():
			verr.add("stockQuantity", "must not be negative")
		case d.GreaterThan(MaxStock):
			verr.add("stockQuantity", "must not exceed "+MaxStock.String())
		default:
			product.StockQuantity = int(d.IntPart())
		}
	}

	if category != "" || mode == CreateMode {
		c, ok := models.ParseCategory(category)
		if !ok {
			verr.add("category", "is not a known category")
		} else if mode == CreateMode && requireCategory && c == models.CategoryUncategorized {
			verr.add("category", "must be selected")
		}
		product.Category = c
	}

	if len(verr.Fields) > 0 {
		return models.Product{}, verr
	}
	if mode == CreateMode {
		product.Normalize()
	}
	return product, nil
}

// FormFromProduct renders a stored product back into form values, the way an
// edit screen is pre-filled.
func FormFromProduct(p models.Product) ProductForm {
	return ProductForm{
		ProductName:   FieldValue(p.ProductName),
		Description:   FieldValue(p.Description),
		Brand:         FieldValue(p.Brand),
		Price:         FieldValue(FormatPrice(p.Price)),
		StockQuantity: FieldValue(decimal.NewFromInt(int64(p.StockQuantity)).String()),
		ImageURL:      FieldValue(p.ImageURL),
		Category:      FieldValue(p.Category),
	}
}

// FormatPrice renders a price the way the search box matches it: no
// trailing zeros, so 45.0 becomes "45" and 45.50 becomes "45.5".
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).String()
}
