package surface

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

// fakeShop implements ShopAPI over an in-memory cart.
type fakeShop struct {
	mu       sync.Mutex
	lines    map[string]domain.CartLine
	products []domain.Product
	active   *domain.PromoCode

	failCheckout bool
	checkouts    int
	lastPromo    string
}

func newFakeShop() *fakeShop {
	return &fakeShop{lines: make(map[string]domain.CartLine)}
}

func (f *fakeShop) FetchCart(ctx context.Context, ownerID string) (domain.CartSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := domain.CartSnapshot{OwnerID: ownerID}
	for _, l := range f.lines {
		snap.Lines = append(snap.Lines, l)
	}
	sort.Slice(snap.Lines, func(i, j int) bool { return snap.Lines[i].ProductID < snap.Lines[j].ProductID })
	return snap, nil
}

func (f *fakeShop) AddLine(ctx context.Context, ownerID string, line domain.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[line.ProductID] = line
	return nil
}

func (f *fakeShop) SetLineQuantity(ctx context.Context, ownerID, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[productID]
	if !ok {
		return domain.ErrLineNotFound
	}
	l.Quantity = quantity
	f.lines[productID] = l
	return nil
}

func (f *fakeShop) RemoveLine(ctx context.Context, ownerID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, productID)
	return nil
}

func (f *fakeShop) FetchActivePromo(ctx context.Context) (*domain.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeShop) ListProducts(ctx context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeShop) FetchOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeShop) Checkout(ctx context.Context, ownerID, promoCode string) (domain.OrderConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts++
	f.lastPromo = promoCode
	if f.failCheckout {
		return domain.OrderConfirmation{}, errors.New("checkout rejected")
	}
	f.lines = make(map[string]domain.CartLine) // service empties the cart
	return domain.OrderConfirmation{OrderID: "ord-1", Status: domain.StatusConfirmed}, nil
}

type noopIdem struct{}

func (noopIdem) TryLock(ctx context.Context, scope, key string) (bool, error) { return true, nil }
func (noopIdem) Remember(ctx context.Context, scope, key, value string) error { return nil }
func (noopIdem) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	return "", false, nil
}
func (noopIdem) Release(ctx context.Context, scope, key string) error { return nil }

func testSession(t *testing.T, shop *fakeShop) *Session {
	t.Helper()
	s := NewSession(Deps{
		API:           shop,
		Idem:          noopIdem{},
		PromoErrorTTL: 50 * time.Millisecond,
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, "user123")
	s.Mount(context.Background())
	t.Cleanup(s.Close)
	return s
}

func keyboard() domain.Product {
	return domain.Product{ID: "p1", Name: "Keyboard", Price: decimal.NewFromInt(10)}
}

func TestBadgeFollowsAddToCart(t *testing.T) {
	shop := newFakeShop()
	s := testSession(t, shop)

	require.Zero(t, s.Badge.Count())
	require.NoError(t, s.Add.Add(context.Background(), keyboard()))

	require.Eventually(t, func() bool {
		return s.Badge.Count() == 1
	}, time.Second, 5*time.Millisecond, "badge surface never observed the add")
}

func TestCartViewTotalsWithAppliedPromo(t *testing.T) {
	shop := newFakeShop()
	shop.active = &domain.PromoCode{Code: "SAVE20", DiscountRate: decimal.NewFromFloat(0.20)}
	s := testSession(t, shop)

	require.NoError(t, s.Add.Add(context.Background(), keyboard()))
	require.NoError(t, s.Add.Add(context.Background(), keyboard())) // qty 2
	require.Eventually(t, func() bool {
		return s.Cart.Snapshot().ItemCount() == 2
	}, time.Second, 5*time.Millisecond)

	st := s.Promo.Apply(context.Background(), "SAVE20")
	require.True(t, st.IsApplied)

	got := s.Cart.Totals().Display()
	assert.Equal(t, "20.00", got.Subtotal)
	assert.Equal(t, "4.00", got.Discount)
	assert.Equal(t, "16.00", got.Total)
}

func TestCheckoutSendsAppliedCodeAndResetsSurfaces(t *testing.T) {
	shop := newFakeShop()
	shop.active = &domain.PromoCode{Code: "SAVE20", DiscountRate: decimal.NewFromFloat(0.20)}
	s := testSession(t, shop)

	require.NoError(t, s.Add.Add(context.Background(), keyboard()))
	s.Promo.Apply(context.Background(), "SAVE20")

	out, err := s.Checkout(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", out.OrderID)
	assert.Equal(t, "SAVE20", shop.lastPromo)

	// promo ends with the cart; every surface converges on empty
	assert.False(t, s.Promo.State().IsApplied)
	require.Eventually(t, func() bool {
		return s.Badge.Count() == 0 && s.Cart.Snapshot().IsEmpty()
	}, time.Second, 5*time.Millisecond)
}

func TestCheckoutFailureLeavesCartAndPromo(t *testing.T) {
	shop := newFakeShop()
	shop.active = &domain.PromoCode{Code: "SAVE20", DiscountRate: decimal.NewFromFloat(0.20)}
	s := testSession(t, shop)

	require.NoError(t, s.Add.Add(context.Background(), keyboard()))
	require.Eventually(t, func() bool {
		return s.Cart.Snapshot().ItemCount() == 1
	}, time.Second, 5*time.Millisecond)
	s.Promo.Apply(context.Background(), "SAVE20")

	shop.mu.Lock()
	shop.failCheckout = true
	shop.mu.Unlock()

	_, err := s.Checkout(context.Background(), "key-1")
	require.Error(t, err)

	assert.True(t, s.Promo.State().IsApplied, "failed checkout must not clear the promo")
	assert.Equal(t, 1, s.Cart.Snapshot().ItemCount(), "failed checkout must not touch the cart")
}

func TestTrendingSamplesCatalog(t *testing.T) {
	shop := newFakeShop()
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		shop.products = append(shop.products, domain.Product{ID: id, Name: id, Price: decimal.NewFromInt(1)})
	}
	s := testSession(t, shop)

	got := s.Cart.Trending(context.Background(), 4)
	assert.Len(t, got, 4)
}

func TestRegistryReusesSessionPerPrincipal(t *testing.T) {
	shop := newFakeShop()
	r := NewRegistry(Deps{
		API:           shop,
		Idem:          noopIdem{},
		PromoErrorTTL: 50 * time.Millisecond,
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(r.Close)

	a := r.Session(context.Background(), "u1")
	b := r.Session(context.Background(), "u1")
	c := r.Session(context.Background(), "u2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}
