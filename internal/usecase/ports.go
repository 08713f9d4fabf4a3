package usecase

import (
	"context"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

type CheckoutAPI interface {
	Checkout(ctx context.Context, ownerID, promoCode string) (domain.OrderConfirmation, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
	Release(ctx context.Context, scope, key string) error
}

// Broadcaster is the cart-changed signal; broadcast.Bus satisfies it.
type Broadcaster interface {
	Publish()
}
