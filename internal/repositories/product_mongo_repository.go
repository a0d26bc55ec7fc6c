package repositories

import (
	"context"
	"fmt"

	"ferreteria/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type productDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	models.Product `bson:",inline"`
}

// MongoProductRepository keeps the catalog in a MongoDB collection. Document
// ids are ObjectID hex strings.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository binds the repository to a collection.
func NewMongoProductRepository(db *mongo.Database, collection string) *MongoProductRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoProductRepository{collection: db.Collection(collection)}
}

// List returns every document of the collection in natural order.
func (r *MongoProductRepository) List(ctx context.Context) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		p := doc.Product
		p.ID = doc.ID.Hex()
		products = append(products, p)
	}
	return products, nil
}

// Add inserts a document and returns the ObjectID generated for it.
func (r *MongoProductRepository) Add(ctx context.Context, product models.Product) (string, error) {
	doc := productDocument{Product: product}
	if product.ID != "" {
		oid, err := primitive.ObjectIDFromHex(product.ID)
		if err != nil {
			return "", fmt.Errorf("invalid product id %q: %w", product.ID, err)
		}
		doc.ID = oid
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert product: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// Update sets every product field on the document with the given id.
func (r *MongoProductRepository) Update(ctx context.Context, id string, product models.Product) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": product})
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes the document with the given id.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}
