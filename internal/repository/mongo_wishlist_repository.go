package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoWishlistRepository struct {
	collection *mongo.Collection
}

func NewMongoWishlistRepository(db *mongo.Database) WishlistRepository {
	return &mongoWishlistRepository{
		collection: db.Collection(wishlistsCollection),
	}
}

func (m *mongoWishlistRepository) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var doc wishlistDocument

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}

	return doc.toDomain(), nil
}

// AddProduct upserts the wishlist and adds productID with $addToSet, which keeps
// references unique and preserves insertion order.
func (m *mongoWishlistRepository) AddProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$addToSet":    bson.M{"products": productID},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc wishlistDocument
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the insert race; the document exists now, so apply the add again.
			err = m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to add product to wishlist: %w", err)
		}
	}

	return doc.toDomain(), nil
}

func (m *mongoWishlistRepository) RemoveProduct(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{"products": productID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc wishlistDocument
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to remove product from wishlist: %w", err)
	}

	return doc.toDomain(), nil
}

func (m *mongoWishlistRepository) DeleteWishlist(ctx context.Context, userID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	return nil
}
