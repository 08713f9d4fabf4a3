package surface

import (
	"context"
	"log/slog"

	"github.com/iexcalibur/lenny-storefront/internal/broadcast"
	"github.com/iexcalibur/lenny-storefront/internal/cartsync"
	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

// AddToCart is the product-card control. It mutates the cart through
// its own store so the mutation broadcasts to every other surface.
type AddToCart struct {
	store *cartsync.Store
}

func NewAddToCart(api cartsync.CartAPI, bus *broadcast.Bus, ownerID string, log *slog.Logger) *AddToCart {
	return &AddToCart{store: cartsync.NewStore(api, bus, ownerID, log)}
}

func (a *AddToCart) Mount(ctx context.Context) { a.store.Mount(ctx) }
func (a *AddToCart) Close()                    { a.store.Close() }

func (a *AddToCart) Add(ctx context.Context, product domain.Product) error {
	return a.store.Add(ctx, product)
}
