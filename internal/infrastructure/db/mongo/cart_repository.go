package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/choriweb/shop-api/internal/core/domain"
)

const cartUpsertAttempts = 3

// CartRepository keeps one document per user. Line merges are done with
// positional $inc and guarded $push so concurrent adds never lose quantity.
type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(collectionCarts)}
}

type mongoCartItem struct {
	ProductID string  `bson:"product_id"`
	Name      string  `bson:"name"`
	Price     float64 `bson:"price"`
	Quantity  int     `bson:"quantity"`
}

type mongoCart struct {
	UserID    string          `bson:"user_id"`
	Items     []mongoCartItem `bson:"items"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

func (m *mongoCart) toDomain() *domain.Cart {
	items := make([]domain.CartItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, domain.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return &domain.Cart{UserID: m.UserID, Items: items, UpdatedAt: m.UpdatedAt}
}

// Get returns the cart for userID or an empty cart when none is stored.
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var mc mongoCart
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return mc.toDomain(), nil
}

func (r *CartRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	line := mongoCartItem{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Quantity:  item.Quantity,
	}

	for attempt := 0; attempt < cartUpsertAttempts; attempt++ {
		now := time.Now().UTC()

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"user_id": userID, "items.product_id": item.ProductID},
			bson.M{
				"$inc": bson.M{"items.$.quantity": item.Quantity},
				"$set": bson.M{"updated_at": now},
			},
		)
		if err != nil {
			return nil, fmt.Errorf("merge cart line: %w", err)
		}
		if res.MatchedCount > 0 {
			return r.Get(ctx, userID)
		}

		// A duplicate key here means another request created the cart or the
		// line in between; the next attempt takes the $inc path.
		_, err = r.coll.UpdateOne(ctx,
			bson.M{"user_id": userID, "items.product_id": bson.M{"$ne": item.ProductID}},
			bson.M{
				"$push": bson.M{"items": line},
				"$set":  bson.M{"updated_at": now},
			},
			options.Update().SetUpsert(true),
		)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("push cart line: %w", err)
		}
		return r.Get(ctx, userID)
	}
	return nil, fmt.Errorf("add cart line: contention on cart %s", userID)
}

func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product_id": productID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("remove cart line: %w", err)
	}
	return r.Get(ctx, userID)
}

func (r *CartRepository) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"items": bson.A{}, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return r.Get(ctx, userID)
}
