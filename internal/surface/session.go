package surface

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iexcalibur/lenny-storefront/internal/broadcast"
	"github.com/iexcalibur/lenny-storefront/internal/cartsync"
	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
	"github.com/iexcalibur/lenny-storefront/internal/promo"
	"github.com/iexcalibur/lenny-storefront/internal/usecase"
)

// ShopAPI is everything a session needs from the remote client.
type ShopAPI interface {
	cartsync.CartAPI
	promo.ActivePromoFetcher
	ProductLister
	OrderFetcher
	usecase.CheckoutAPI
}

type OrderFetcher interface {
	FetchOrders(ctx context.Context, ownerID string) ([]domain.Order, error)
}

type Deps struct {
	API           ShopAPI
	Idem          usecase.IdempotencyStore
	PromoErrorTTL time.Duration
	Log           *slog.Logger
}

// Session is one logical user's set of mounted surfaces. The surfaces
// share nothing in-process except the session's broadcast bus; the
// remote service remains the single source of truth.
type Session struct {
	Owner string
	Badge *BadgeCounter
	Cart  *CartView
	Add   *AddToCart
	Promo *promo.Workflow

	api      ShopAPI
	checkout *usecase.Checkout
	log      *slog.Logger
}

func NewSession(deps Deps, ownerID string) *Session {
	bus := broadcast.NewBus()
	pw := promo.NewWorkflow(deps.API, deps.PromoErrorTTL, deps.Log)

	return &Session{
		Owner:    ownerID,
		Badge:    NewBadgeCounter(deps.API, bus, ownerID, deps.Log),
		Cart:     NewCartView(deps.API, bus, ownerID, pw, deps.API, deps.Log),
		Add:      NewAddToCart(deps.API, bus, ownerID, deps.Log),
		Promo:    pw,
		api:      deps.API,
		checkout: usecase.NewCheckout(deps.API, deps.Idem, bus, deps.Log),
		log:      deps.Log,
	}
}

func (s *Session) Mount(ctx context.Context) {
	s.Badge.Mount(ctx)
	s.Cart.Mount(ctx)
	s.Add.Mount(ctx)
}

func (s *Session) Close() {
	s.Badge.Close()
	s.Cart.Close()
	s.Add.Close()
	s.Promo.Clear()
}

// Checkout submits the cart with the applied promo code. An empty cart
// is not blocked here; the service decides. On success the promo state
// ends with the cart.
func (s *Session) Checkout(ctx context.Context, idemKey string) (usecase.CheckoutOutput, error) {
	if s.Cart.Snapshot().IsEmpty() {
		s.log.Warn("checkout requested with empty local snapshot", "owner", s.Owner)
	}

	out, err := s.checkout.Execute(ctx, usecase.CheckoutInput{
		OwnerID:        s.Owner,
		IdempotencyKey: idemKey,
		PromoCode:      s.Promo.State().AppliedCode,
	})
	if err != nil {
		return out, err
	}

	s.Promo.Clear()
	return out, nil
}

// Products lists the catalog. A remote failure degrades to an empty
// list so browsing surfaces still render.
func (s *Session) Products(ctx context.Context) []domain.Product {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		s.log.Warn("product list fetch failed", "owner", s.Owner, "err", err)
		return nil
	}
	return products
}

// Orders lists the owner's order history, degrading to empty on failure.
func (s *Session) Orders(ctx context.Context) []domain.Order {
	orders, err := s.api.FetchOrders(ctx, s.Owner)
	if err != nil {
		s.log.Warn("order history fetch failed", "owner", s.Owner, "err", err)
		return nil
	}
	return orders
}

// Registry hands out one mounted session per principal.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, sessions: make(map[string]*Session)}
}

func (r *Registry) Session(ctx context.Context, ownerID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[ownerID]; ok {
		return s
	}
	s := NewSession(r.deps, ownerID)
	s.Mount(ctx)
	r.sessions[ownerID] = s
	return s
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}
