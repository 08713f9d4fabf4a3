// Package surface holds the cart-aware views: the badge counter, the
// cart page, and the add-to-cart control. Each owns its own
// synchronization store and learns about other surfaces' mutations only
// through the broadcast bus, never by calling them directly.
package surface

import (
	"context"
	"log/slog"

	"github.com/iexcalibur/lenny-storefront/internal/broadcast"
	"github.com/iexcalibur/lenny-storefront/internal/cartsync"
)

// BadgeCounter is the navbar cart badge: the total quantity across all
// lines of this user's cart.
type BadgeCounter struct {
	store *cartsync.Store
}

func NewBadgeCounter(api cartsync.CartAPI, bus *broadcast.Bus, ownerID string, log *slog.Logger) *BadgeCounter {
	return &BadgeCounter{store: cartsync.NewStore(api, bus, ownerID, log)}
}

func (b *BadgeCounter) Mount(ctx context.Context) { b.store.Mount(ctx) }
func (b *BadgeCounter) Close()                    { b.store.Close() }

func (b *BadgeCounter) Count() int {
	return b.store.Snapshot().ItemCount()
}
