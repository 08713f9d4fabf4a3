// Package cartsync keeps one surface's view of the cart eventually
// consistent with the remote truth and with every other mounted surface.
// Each surface owns its own Store; stores never talk to each other,
// only through the broadcast bus and the remote service.
package cartsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iexcalibur/lenny-storefront/internal/broadcast"
	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateLoading       State = "LOADING"
	StateReady         State = "READY"
)

// refreshTimeout bounds a notification-triggered re-fetch.
const refreshTimeout = 10 * time.Second

// CartAPI is the slice of the remote client a store needs.
type CartAPI interface {
	FetchCart(ctx context.Context, ownerID string) (domain.CartSnapshot, error)
	AddLine(ctx context.Context, ownerID string, line domain.CartLine) error
	SetLineQuantity(ctx context.Context, ownerID, productID string, quantity int) error
	RemoveLine(ctx context.Context, ownerID, productID string) error
}

type Store struct {
	api     CartAPI
	bus     *broadcast.Bus
	ownerID string
	log     *slog.Logger

	mu     sync.Mutex
	snap   domain.CartSnapshot
	state  State
	closed bool

	sub  *broadcast.Subscription
	done chan struct{}
}

func NewStore(api CartAPI, bus *broadcast.Bus, ownerID string, log *slog.Logger) *Store {
	return &Store{
		api:     api,
		bus:     bus,
		ownerID: ownerID,
		log:     log,
		snap:    domain.CartSnapshot{OwnerID: ownerID},
		state:   StateUninitialized,
	}
}

// Mount performs the initial refresh and starts listening for cart-change
// notifications from other surfaces. Call Close on teardown.
func (s *Store) Mount(ctx context.Context) {
	s.sub = s.bus.Subscribe()
	s.done = make(chan struct{})

	s.Refresh(ctx)

	go func() {
		defer close(s.done)
		for range s.sub.C {
			rctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			s.Refresh(rctx)
			cancel()
		}
	}()
}

// Close deregisters the subscription. Any in-flight refresh resolving
// after Close is discarded rather than written into dead state.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.sub != nil {
		s.sub.Cancel()
		<-s.done
	}
}

// Refresh unconditionally re-fetches the cart and replaces the local
// snapshot. A failed fetch degrades to an empty cart (fail-safe-empty);
// the error is logged, never raised.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = StateLoading
	s.mu.Unlock()

	snap, err := s.api.FetchCart(ctx, s.ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err != nil {
		s.log.Error("cart refresh failed, treating cart as empty",
			"owner", s.ownerID, "err", err)
		s.snap = domain.CartSnapshot{OwnerID: s.ownerID}
	} else {
		s.snap = snap
	}
	s.state = StateReady
}

// ChangeQuantity sets a line's quantity. Quantities below 1 delegate to
// Remove. On remote failure the operation aborts: no local mutation, no
// broadcast (no optimistic update).
func (s *Store) ChangeQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, productID)
	}
	if err := s.api.SetLineQuantity(ctx, s.ownerID, productID, quantity); err != nil {
		s.log.Error("set line quantity failed", "owner", s.ownerID, "product", productID, "err", err)
		return err
	}
	s.Refresh(ctx)
	s.bus.Publish()
	return nil
}

// Remove deletes a line, refreshes, and broadcasts.
func (s *Store) Remove(ctx context.Context, productID string) error {
	if err := s.api.RemoveLine(ctx, s.ownerID, productID); err != nil {
		s.log.Error("remove line failed", "owner", s.ownerID, "product", productID, "err", err)
		return err
	}
	s.Refresh(ctx)
	s.bus.Publish()
	return nil
}

// Add puts one unit of product in the cart. A pre-check against the
// remote cart decides between adding a new line and incrementing an
// existing one, so repeated adds converge instead of duplicating lines.
func (s *Store) Add(ctx context.Context, product domain.Product) error {
	snap, err := s.api.FetchCart(ctx, s.ownerID)
	if err != nil {
		s.log.Error("add pre-check fetch failed", "owner", s.ownerID, "product", product.ID, "err", err)
		return err
	}

	if existing, ok := snap.Line(product.ID); ok {
		err = s.api.SetLineQuantity(ctx, s.ownerID, product.ID, existing.Quantity+1)
	} else {
		err = s.api.AddLine(ctx, s.ownerID, domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
			ImageRef:  product.ImageRef,
		})
	}
	if err != nil {
		s.log.Error("add to cart failed", "owner", s.ownerID, "product", product.ID, "err", err)
		return err
	}

	s.Refresh(ctx)
	s.bus.Publish()
	return nil
}

// Snapshot returns a copy of the current local view. It may be stale
// between another surface's mutation and this store's next refresh.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.CartSnapshot{OwnerID: s.snap.OwnerID}
	out.Lines = append(out.Lines, s.snap.Lines...)
	return out
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
