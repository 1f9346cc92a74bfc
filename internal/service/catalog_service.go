package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/repository"
)

// ImageStore persists product images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Image is an uploaded product image.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CatalogService struct {
	products repository.ProductRepository
	images   ImageStore
	logger   *log.Entry
}

// NewCatalogService builds the catalog service. images may be nil, in which case
// uploads fail with domain.ErrUploadsUnavailable.
func NewCatalogService(products repository.ProductRepository, images ImageStore, logger *log.Entry) *CatalogService {
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	return &CatalogService{
		products: products,
		images:   images,
		logger:   logger,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	if q.PriceMin != nil && q.PriceMax != nil && q.PriceMin.GreaterThan(*q.PriceMax) {
		return domain.ProductPage{}, fmt.Errorf("%w: priceMin is greater than priceMax", domain.ErrValidation)
	}
	page, err := s.products.ListProducts(ctx, q)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	return page, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// CreateProduct stores a new product. Ratings start at zero.
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.ID = ""
	p.Rating = 0
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.WithField("product_id", p.ID).Info("product created")
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	patch.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

// AddImage uploads img and appends its URL to the product's images.
func (s *CatalogService) AddImage(ctx context.Context, id string, img Image) (*domain.Product, error) {
	if s.images == nil {
		return nil, domain.ErrUploadsUnavailable
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return nil, fmt.Errorf("%w: file must be an image", domain.ErrValidation)
	}

	// Nothing is uploaded for an unknown product.
	if _, err := s.products.GetProduct(ctx, id); err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}

	key := imageKey(id, img.Filename)
	url, err := s.images.Upload(ctx, key, img.ContentType, img.Body, img.Size)
	if err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}

	p, err := s.products.AppendImage(ctx, id, url)
	if err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}
	s.logger.WithFields(log.Fields{"product_id": id, "key": key}).Info("product image uploaded")
	return p, nil
}

func imageKey(productID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), ext)
}

func avatarKey(filename string) string {
	return fmt.Sprintf("avatars/%s%s", uuid.NewString(), strings.ToLower(path.Ext(filename)))
}
