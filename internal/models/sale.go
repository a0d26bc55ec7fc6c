package models

import "time"

// Sale records a storefront purchase of a single product.
type Sale struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID   string    `json:"productId" gorm:"index;type:varchar(64)"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"` // price at the time of purchase
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}
