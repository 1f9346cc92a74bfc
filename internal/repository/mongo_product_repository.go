package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var sortFields = map[string]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByPrice:     "price",
	domain.SortByRating:    "rating",
	domain.SortByName:      "name",
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection(productsCollection),
	}
}

func (m *mongoProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseObjectID(id, domain.ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	if err := m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p := doc.toDomain()
	return &p, nil
}

func (m *mongoProductRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Product{}, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	byID := make(map[string]domain.Product, len(docs))
	for _, d := range docs {
		byID[d.ID.Hex()] = d.toDomain()
	}

	products := make([]domain.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *mongoProductRepository) ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	q.Normalize()

	filter, err := buildProductFilter(q)
	if err != nil {
		return domain.ProductPage{}, err
	}

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("failed to count products: %w", err)
	}

	order := -1
	if q.SortAscending {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortFields[q.SortBy], Value: order}, {Key: "_id", Value: order}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.PageSize))

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("failed to query products: %w", err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return domain.ProductPage{}, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]domain.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toDomain()
	}
	return domain.NewProductPage(products, q, total), nil
}

func buildProductFilter(q domain.ProductQuery) (bson.M, error) {
	filter := bson.M{}
	if q.Keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Keyword), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	price := bson.M{}
	if q.PriceMin != nil {
		v, err := toDecimal128(*q.PriceMin)
		if err != nil {
			return nil, fmt.Errorf("%w: priceMin", domain.ErrValidation)
		}
		price["$gte"] = v
	}
	if q.PriceMax != nil {
		v, err := toDecimal128(*q.PriceMax)
		if err != nil {
			return nil, fmt.Errorf("%w: priceMax", domain.ErrValidation)
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter, nil
}

func (m *mongoProductRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	doc, err := productToDocument(p)
	if err != nil {
		return err
	}

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (m *mongoProductRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()

	doc, err := productToDocument(p)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return domain.ErrProductNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"name":           doc.Name,
			"description":    doc.Description,
			"price":          doc.Price,
			"discount_price": doc.DiscountPrice,
			"images":         doc.Images,
			"category":       doc.Category,
			"tags":           doc.Tags,
			"stock":          doc.Stock,
			"is_new_product": doc.IsNewProduct,
			"is_featured":    doc.IsFeatured,
			"is_sale":        doc.IsSale,
			"rating":         doc.Rating,
			"updated_at":     doc.UpdatedAt,
		},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseObjectID(id, domain.ErrProductNotFound)
	if err != nil {
		return err
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) AppendImage(ctx context.Context, id, url string) (*domain.Product, error) {
	oid, err := parseObjectID(id, domain.ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	if err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to append product image: %w", err)
	}

	p := doc.toDomain()
	return &p, nil
}
