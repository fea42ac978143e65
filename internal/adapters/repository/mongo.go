package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pelyams/inventory_items_service/internal/domain"
)

type itemDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	UnitPrice float64            `bson:"unitPrice"`
	Quantity  int64              `bson:"quantity"`
}

func (d itemDocument) toItem() domain.Item {
	return domain.Item{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		UnitPrice: d.UnitPrice,
		Quantity:  d.Quantity,
	}
}

func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to mongo: %s", domain.ErrDependency, err.Error())
	}
	return client, nil
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{collection: collection}
}

// ValidID accepts only the canonical lowercase hex form, so that one item
// never maps to two cache keys.
func (r *MongoRepository) ValidID(id string) bool {
	oid, err := primitive.ObjectIDFromHex(id)
	return err == nil && oid.Hex() == id
}

func (r *MongoRepository) GetAllItems(ctx context.Context) ([]domain.Item, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get all items. %s", domain.ErrDependency, err.Error())
	}
	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode items. %s", domain.ErrDependency, err.Error())
	}
	items := make([]domain.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toItem())
	}
	return items, nil
}

func (r *MongoRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, id)
	}
	var doc itemDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: failed to find item %s in DB", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get item %s. %s", domain.ErrDependency, id, err.Error())
	}
	item := doc.toItem()
	return &item, nil
}

func (r *MongoRepository) StoreItem(ctx context.Context, in domain.ItemInput) (string, error) {
	doc := itemDocument{
		Name:      in.Name,
		UnitPrice: *in.UnitPrice,
		Quantity:  *in.Quantity,
	}
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to store item. %s", domain.ErrDependency, err.Error())
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: unexpected inserted id type %T", domain.ErrDependency, res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *MongoRepository) UpdateItemById(ctx context.Context, id string, in domain.ItemInput) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, id)
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"name":      in.Name,
			"unitPrice": *in.UnitPrice,
			"quantity":  *in.Quantity,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to update item %s. %s", domain.ErrDependency, id, err.Error())
	}
	return res.MatchedCount, nil
}

func (r *MongoRepository) DeleteItemById(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, id)
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete item %s. %s", domain.ErrDependency, id, err.Error())
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.collection.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: mongo ping failed. %s", domain.ErrDependency, err.Error())
	}
	return nil
}
