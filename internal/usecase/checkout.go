package usecase

import (
	"context"
	"errors"
	"log/slog"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

var ErrDuplicate = errors.New("duplicate idempotency key")

type CheckoutInput struct {
	OwnerID        string
	IdempotencyKey string
	PromoCode      string
}

type CheckoutOutput struct {
	OrderID  string
	Status   domain.Status
	Replayed bool
}

// Checkout submits the cart as an order. The remote service performs the
// whole checkout atomically and recomputes totals; the client sends only
// the owner and the applied promo code. Because the request is not safely
// retriable, submissions carrying an idempotency key are locked and
// replayed instead of repeated.
type Checkout struct {
	api  CheckoutAPI
	idem IdempotencyStore
	bus  Broadcaster
	log  *slog.Logger
}

func NewCheckout(api CheckoutAPI, idem IdempotencyStore, bus Broadcaster, log *slog.Logger) *Checkout {
	return &Checkout{api: api, idem: idem, bus: bus, log: log}
}

func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if in.IdempotencyKey != "" {
		// Fast path: idempotency recall
		if id, ok, _ := uc.idem.Recall(ctx, in.OwnerID, in.IdempotencyKey); ok {
			return CheckoutOutput{OrderID: id, Status: domain.StatusConfirmed, Replayed: true}, nil
		}
		ok, err := uc.idem.TryLock(ctx, in.OwnerID, in.IdempotencyKey)
		if err != nil {
			return CheckoutOutput{}, err
		}
		if !ok {
			return CheckoutOutput{}, ErrDuplicate
		}
	}

	conf, err := uc.api.Checkout(ctx, in.OwnerID, in.PromoCode)
	if err != nil {
		// Release the slot so a user-initiated retry is not locked out;
		// nothing was mutated and nothing is broadcast.
		if in.IdempotencyKey != "" {
			_ = uc.idem.Release(ctx, in.OwnerID, in.IdempotencyKey)
		}
		uc.log.Error("checkout failed", "owner", in.OwnerID, "err", err)
		return CheckoutOutput{}, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, in.OwnerID, in.IdempotencyKey, conf.OrderID)
	}

	// Every surface resets to the fresh (now empty) remote cart.
	uc.bus.Publish()

	return CheckoutOutput{OrderID: conf.OrderID, Status: conf.Status}, nil
}
