package surface

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/iexcalibur/lenny-storefront/internal/broadcast"
	"github.com/iexcalibur/lenny-storefront/internal/cartsync"
	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
	"github.com/iexcalibur/lenny-storefront/internal/pricing"
	"github.com/iexcalibur/lenny-storefront/internal/promo"
)

type ProductLister interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// CartView is the cart page: lines, totals with the applied promo, and
// the trending strip sampled from the catalog.
type CartView struct {
	store   *cartsync.Store
	promo   *promo.Workflow
	catalog ProductLister
	log     *slog.Logger
}

func NewCartView(api cartsync.CartAPI, bus *broadcast.Bus, ownerID string, pw *promo.Workflow, catalog ProductLister, log *slog.Logger) *CartView {
	return &CartView{
		store:   cartsync.NewStore(api, bus, ownerID, log),
		promo:   pw,
		catalog: catalog,
		log:     log,
	}
}

func (v *CartView) Mount(ctx context.Context) { v.store.Mount(ctx) }
func (v *CartView) Close()                    { v.store.Close() }

func (v *CartView) Snapshot() domain.CartSnapshot { return v.store.Snapshot() }

func (v *CartView) State() cartsync.State { return v.store.State() }

func (v *CartView) ChangeQuantity(ctx context.Context, productID string, quantity int) error {
	return v.store.ChangeQuantity(ctx, productID, quantity)
}

func (v *CartView) Remove(ctx context.Context, productID string) error {
	return v.store.Remove(ctx, productID)
}

// Totals derives from the current snapshot and the applied promo.
func (v *CartView) Totals() pricing.Totals {
	return pricing.Compute(v.store.Snapshot(), v.promo.Applied())
}

// Trending samples up to n random catalog products. A catalog failure
// degrades to an empty strip; the cart itself still renders.
func (v *CartView) Trending(ctx context.Context, n int) []domain.Product {
	products, err := v.catalog.ListProducts(ctx)
	if err != nil {
		v.log.Warn("trending products fetch failed", "err", err)
		return nil
	}
	rand.Shuffle(len(products), func(i, j int) {
		products[i], products[j] = products[j], products[i]
	})
	if len(products) > n {
		products = products[:n]
	}
	return products
}
