package http

import (
	"context"
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/service"
)

type stubVerifier map[string]domain.Identity

func (s stubVerifier) VerifyIdentity(token string) (domain.Identity, error) {
	id, ok := s[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

var (
	shopper = domain.Identity{UserID: "u1", Name: "ann", Email: "ann@example.com", Role: domain.RoleUser}
	admin   = domain.Identity{UserID: "a1", Name: "root", Email: "root@example.com", Role: domain.RoleAdmin}

	verifier = stubVerifier{"user-token": shopper, "admin-token": admin}
)

type cartCall struct {
	userID    string
	productID string
	quantity  int
}

type mockCartService struct {
	m     sync.RWMutex
	cart  *domain.Cart
	err   error
	calls []cartCall
}

func (m *mockCartService) record(c cartCall) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, c)
}

func (m *mockCartService) lastCall() cartCall {
	m.m.RLock()
	defer m.m.RUnlock()
	if len(m.calls) == 0 {
		return cartCall{}
	}
	return m.calls[len(m.calls)-1]
}

func (m *mockCartService) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.record(cartCall{userID: userID})
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return domain.EmptyCart(userID), nil
	}
	return m.cart, nil
}

func (m *mockCartService) AddItem(_ context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	m.record(cartCall{userID: userID, productID: productID, quantity: quantity})
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartService) RemoveItem(_ context.Context, userID, productID string) (*domain.Cart, error) {
	m.record(cartCall{userID: userID, productID: productID})
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartService) ClearCart(_ context.Context, userID string) error {
	m.record(cartCall{userID: userID})
	return m.err
}

type mockWishlistService struct {
	wishlist *domain.Wishlist
	view     *domain.WishlistView
	err      error
}

func (m *mockWishlistService) AddToWishlist(_ context.Context, _, _ string) (*domain.Wishlist, error) {
	return m.wishlist, m.err
}

func (m *mockWishlistService) RemoveFromWishlist(_ context.Context, _, _ string) (*domain.Wishlist, error) {
	return m.wishlist, m.err
}

func (m *mockWishlistService) GetWishlist(_ context.Context, _ string) (*domain.WishlistView, error) {
	return m.view, m.err
}

func (m *mockWishlistService) ClearWishlist(_ context.Context, _ string) error {
	return m.err
}

type mockCatalogService struct {
	m         sync.RWMutex
	product   *domain.Product
	page      domain.ProductPage
	err       error
	lastQuery domain.ProductQuery
	lastPatch domain.ProductPatch
	created   *domain.Product
	image     []byte
	imageType string
}

func (m *mockCatalogService) ListProducts(_ context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastQuery = q
	return m.page, m.err
}

func (m *mockCatalogService) GetProduct(_ context.Context, _ string) (*domain.Product, error) {
	return m.product, m.err
}

func (m *mockCatalogService) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p.ID = "new-id"
	m.created = p
	return p, nil
}

func (m *mockCatalogService) UpdateProduct(_ context.Context, _ string, patch domain.ProductPatch) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lastPatch = patch
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockCatalogService) DeleteProduct(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCatalogService) AddImage(_ context.Context, _ string, img service.Image) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(img.Body)
	if err != nil {
		return nil, err
	}
	m.image = data
	m.imageType = img.ContentType
	p := *m.product
	p.Images = append(p.Images, "http://images.local/"+img.Filename)
	return &p, nil
}

type mockUserService struct {
	m          sync.Mutex
	user       *domain.User
	token      string
	err        error
	avatar     []byte
	avatarType string
}

func (m *mockUserService) Register(_ context.Context, reg domain.Registration, avatar *service.Image) (*domain.User, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	u := &domain.User{ID: "u1", Name: reg.Name, Email: reg.Email, Role: domain.RoleUser}
	if avatar != nil {
		data, err := io.ReadAll(avatar.Body)
		if err != nil {
			return nil, "", err
		}
		m.m.Lock()
		m.avatar = data
		m.avatarType = avatar.ContentType
		m.m.Unlock()
		u.Avatar = "http://images.local/avatars/" + avatar.Filename
	}
	return u, m.token, nil
}

func (m *mockUserService) Login(_ context.Context, _, _ string) (*domain.User, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.user, m.token, nil
}

func (m *mockUserService) CurrentUser(_ context.Context, _ domain.Identity) (*domain.User, error) {
	return m.user, m.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
