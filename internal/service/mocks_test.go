package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront-service/internal/cache"
	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/metrics"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// mockCartRepository enforces the version check like the MongoDB implementation.
// Each entry in interference runs against the stored cart on the next save,
// simulating a concurrent writer that wins the race.
type mockCartRepository struct {
	m            sync.RWMutex
	carts        map[string]*domain.Cart
	interference []func(*domain.Cart)
	saves        int
	err          error
	// afterGet runs after GetCart has read the stored cart, outside the lock.
	afterGet func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func (m *mockCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, hook, err := m.read(userID)
	if hook != nil {
		hook()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return cart, err
}

func (m *mockCartRepository) read(userID string) (*domain.Cart, func(), error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.afterGet, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, m.afterGet, domain.ErrCartNotFound
	}
	return c.Clone(), m.afterGet, nil
}

func (m *mockCartRepository) setAfterGet(fn func()) {
	m.m.Lock()
	defer m.m.Unlock()
	m.afterGet = fn
}

func (m *mockCartRepository) LoadOrCreateCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		c = domain.EmptyCart(userID)
		m.carts[userID] = c
	}
	return c.Clone(), nil
}

func (m *mockCartRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++

	stored, ok := m.carts[cart.UserID]
	if !ok {
		return domain.ErrVersionConflict
	}
	if len(m.interference) > 0 {
		fn := m.interference[0]
		m.interference = m.interference[1:]
		fn(stored)
		stored.Version++
	}
	if stored.Version != cart.Version {
		return domain.ErrVersionConflict
	}

	cart.Version++
	m.carts[cart.UserID] = cart.Clone()
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.carts, userID)
	return nil
}

func (m *mockCartRepository) stored(userID string) (*domain.Cart, bool) {
	m.m.RLock()
	defer m.m.RUnlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (m *mockCartRepository) saveCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.saves
}

type mockProductRepository struct {
	m        sync.RWMutex
	products map[string]domain.Product
	appended []string
	nextID   int
	err      error
}

func newMockProductRepository(products ...domain.Product) *mockProductRepository {
	r := &mockProductRepository{products: map[string]domain.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (m *mockProductRepository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) GetProductsByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) ListProducts(_ context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return domain.ProductPage{}, m.err
	}
	q.Normalize()
	out := []domain.Product{}
	for _, p := range m.products {
		if q.Category == "" || p.Category == q.Category {
			out = append(out, p)
		}
	}
	return domain.NewProductPage(out, q, int64(len(out))), nil
}

func (m *mockProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	p.ID = fmt.Sprintf("created-%d", m.nextID)
	m.products[p.ID] = *p
	return nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	m.products[p.ID] = *p
	return nil
}

func (m *mockProductRepository) DeleteProduct(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) AppendImage(_ context.Context, id, url string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p.Images = append(p.Images, url)
	m.products[id] = p
	m.appended = append(m.appended, url)
	return &p, nil
}

func (m *mockProductRepository) remove(id string) {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, id)
}

type mockWishlistRepository struct {
	m         sync.RWMutex
	wishlists map[string]*domain.Wishlist
	err       error
	afterGet  func()
}

func newMockWishlistRepository() *mockWishlistRepository {
	return &mockWishlistRepository{wishlists: map[string]*domain.Wishlist{}}
}

func copyWishlist(w *domain.Wishlist) *domain.Wishlist {
	cp := *w
	cp.Products = append([]string{}, w.Products...)
	return &cp
}

func (m *mockWishlistRepository) GetWishlist(_ context.Context, userID string) (*domain.Wishlist, error) {
	w, hook, err := m.read(userID)
	if hook != nil {
		hook()
	}
	return w, err
}

func (m *mockWishlistRepository) read(userID string) (*domain.Wishlist, func(), error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.afterGet, m.err
	}
	w, ok := m.wishlists[userID]
	if !ok {
		return nil, m.afterGet, domain.ErrWishlistNotFound
	}
	return copyWishlist(w), m.afterGet, nil
}

func (m *mockWishlistRepository) setAfterGet(fn func()) {
	m.m.Lock()
	defer m.m.Unlock()
	m.afterGet = fn
}

func (m *mockWishlistRepository) AddProduct(_ context.Context, userID, productID string) (*domain.Wishlist, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	w, ok := m.wishlists[userID]
	if !ok {
		w = domain.EmptyWishlist(userID)
		m.wishlists[userID] = w
	}
	if !w.Contains(productID) {
		w.Products = append(w.Products, productID)
	}
	return copyWishlist(w), nil
}

func (m *mockWishlistRepository) RemoveProduct(_ context.Context, userID, productID string) (*domain.Wishlist, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	w, ok := m.wishlists[userID]
	if !ok {
		return nil, domain.ErrWishlistNotFound
	}
	kept := []string{}
	for _, id := range w.Products {
		if id != productID {
			kept = append(kept, id)
		}
	}
	w.Products = kept
	return copyWishlist(w), nil
}

func (m *mockWishlistRepository) DeleteWishlist(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.wishlists, userID)
	return nil
}

type mockUserRepository struct {
	m     sync.RWMutex
	users map[string]*domain.User
	err   error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: map[string]*domain.User{}}
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	u.ID = "user-" + u.Email
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	email = domain.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type mockCache[T any] struct {
	m       sync.RWMutex
	entries map[string]*T
	deletes int
	err     error
}

func newMockCache[T any]() *mockCache[T] {
	return &mockCache[T]{entries: map[string]*T{}}
}

func (m *mockCache[T]) Get(_ context.Context, key string) (*T, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache[T]) Set(_ context.Context, key string, v *T) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.entries[key] = v
	return m.err
}

func (m *mockCache[T]) SetIfAbsent(_ context.Context, key string, v *T) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = v
	}
	return m.err
}

func (m *mockCache[T]) get(key string) (*T, bool) {
	m.m.RLock()
	defer m.m.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *mockCache[T]) drop(key string) {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.entries, key)
}

func (m *mockCache[T]) Delete(_ context.Context, key string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.entries, key)
	m.deletes++
	return m.err
}

func (m *mockCache[T]) has(key string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.entries[key]
	return ok
}

type fakeImageStore struct {
	m       sync.Mutex
	uploads map[string][]byte
	err     error
}

func (f *fakeImageStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = buf.Bytes()
	return "http://images.local/" + key, nil
}

type stubTokenIssuer struct {
	err error
}

func (s stubTokenIssuer) Issue(u *domain.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + u.ID, nil
}

func requireTotalInvariant(t *testing.T, c *domain.Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !sum.Equal(c.TotalPrice) {
		t.Fatalf("total %s does not match sum of lines %s", c.TotalPrice, sum)
	}
}
