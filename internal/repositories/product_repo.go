package repositories

import (
	"context"
	"errors"

	"ferreteria/internal/models"
)

// DefaultCollection is the document collection the mobile app writes to.
const DefaultCollection = "colecProductos"

// ErrNotFound is returned when a document id does not exist in the collection.
var ErrNotFound = errors.New("document not found")

// ProductRepository is the remote document collection holding the catalog.
type ProductRepository interface {
	// List returns every document in the collection.
	List(ctx context.Context) ([]models.Product, error)
	// Add stores a new document and returns the id assigned to it.
	Add(ctx context.Context, product models.Product) (string, error)
	// Update replaces the fields of the document with the given id.
	Update(ctx context.Context, id string, product models.Product) error
	// Delete removes the document with the given id.
	Delete(ctx context.Context, id string) error
}
