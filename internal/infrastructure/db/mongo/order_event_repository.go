package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/choriweb/shop-api/internal/core/domain"
)

// OrderEventRepository writes the order_events audit collection.
type OrderEventRepository struct {
	coll *mongo.Collection
}

func NewOrderEventRepository(db *mongo.Database) *OrderEventRepository {
	return &OrderEventRepository{coll: db.Collection(collectionOrderEvents)}
}

func (r *OrderEventRepository) Insert(ctx context.Context, ev *domain.OrderEvent) error {
	doc := bson.M{
		"order_id":    ev.OrderID,
		"kind":        string(ev.Kind),
		"value":       ev.Value,
		"actor_id":    ev.ActorID,
		"recorded_at": ev.RecordedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}
