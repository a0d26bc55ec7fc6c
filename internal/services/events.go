package services

import (
	"encoding/json"
	"time"

	"ferreteria/internal/models"

	"go.uber.org/zap"
)

// Routing keys of the catalog events.
const (
	EventProductCreated = "catalog.product.created"
	EventProductUpdated = "catalog.product.updated"
	EventProductDeleted = "catalog.product.deleted"
	EventSaleRecorded   = "catalog.sale.recorded"
)

// EventPublisher delivers catalog events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// CatalogEvent is the JSON body of every published event.
type CatalogEvent struct {
	Type       string          `json:"type"`
	ProductID  string          `json:"productId"`
	Product    *models.Product `json:"product,omitempty"`
	Sale       *models.Sale    `json:"sale,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// publishEvent never fails the calling operation; broker errors are logged.
func publishEvent(publisher EventPublisher, event CatalogEvent) {
	if publisher == nil {
		return
	}
	event.OccurredAt = time.Now()
	body, err := json.Marshal(event)
	if err != nil {
		zap.L().Error("failed to marshal catalog event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := publisher.Publish(event.Type, body); err != nil {
		zap.L().Warn("failed to publish catalog event",
			zap.String("type", event.Type),
			zap.String("product_id", event.ProductID),
			zap.Error(err))
		return
	}
	zap.L().Debug("published catalog event", zap.String("type", event.Type), zap.String("product_id", event.ProductID))
}
