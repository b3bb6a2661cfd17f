package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/choriweb/shop-api/internal/core/domain"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collectionOrders)}
}

type mongoOrder struct {
	ID            primitive.ObjectID          `bson:"_id,omitempty"`
	UserID        string                      `bson:"user_id"`
	Customer      domain.Customer             `bson:"customer"`
	Items         []domain.OrderItem          `bson:"items"`
	Total         float64                     `bson:"total"`
	Address       domain.ShippingAddress      `bson:"address"`
	PaymentMethod string                      `bson:"payment_method"`
	Status        string                      `bson:"status"`
	PaymentStatus string                      `bson:"payment_status"`
	StatusHistory []domain.StatusHistoryEntry `bson:"status_history"`
	CreatedAt     time.Time                   `bson:"created_at"`
	UpdatedAt     time.Time                   `bson:"updated_at"`
}

func toMongoOrder(o *domain.Order) mongoOrder {
	return mongoOrder{
		UserID:        o.UserID,
		Customer:      o.Customer,
		Items:         o.Items,
		Total:         o.Total,
		Address:       o.Address,
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		StatusHistory: o.StatusHistory,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (m *mongoOrder) toDomain() *domain.Order {
	return &domain.Order{
		ID:            m.ID.Hex(),
		UserID:        m.UserID,
		Customer:      m.Customer,
		Items:         m.Items,
		Total:         m.Total,
		Address:       m.Address,
		PaymentMethod: domain.PaymentMethod(m.PaymentMethod),
		Status:        domain.OrderStatus(m.Status),
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		StatusHistory: m.StatusHistory,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	res, err := r.coll.InsertOne(ctx, toMongoOrder(o))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	created := *o
	created.ID = insertedHex(res)
	return &created, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	var mo mongoOrder
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return mo.toDomain(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	cur, err := r.coll.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	var docs []mongoOrder
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// UpdateStatus is conditional on the stored status so two concurrent
// transitions from the same state cannot both apply.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id string,
	from, to domain.OrderStatus,
	entry domain.StatusHistoryEntry,
) (*domain.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{
		"$set":  bson.M{"status": string(to), "updated_at": entry.Timestamp},
		"$push": bson.M{"status_history": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mo mongoOrder
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return mo.toDomain(), nil
}

func (r *OrderRepository) UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	update := bson.M{"$set": bson.M{"payment_status": string(status), "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mo mongoOrder
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update payment: %w", err)
	}
	return mo.toDomain(), nil
}
