// Package promo validates and applies the single active promotional
// code. A rejected code is not an error condition: it produces a
// transient user message that clears itself after a fixed delay.
package promo

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

// ErrInvalidCode is the user-facing rejection message.
const ErrInvalidCode = "Invalid promo code"

// ActivePromoFetcher is the slice of the remote client this workflow needs.
type ActivePromoFetcher interface {
	FetchActivePromo(ctx context.Context) (*domain.PromoCode, error)
}

// State is a point-in-time copy of the workflow's fields.
type State struct {
	Input       string `json:"promoInput"`
	AppliedCode string `json:"appliedCode"`
	IsApplied   bool   `json:"isApplied"`
	Error       string `json:"error"`
}

type Workflow struct {
	api    ActivePromoFetcher
	errTTL time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	input   string
	applied *domain.PromoCode
	errMsg  string
	errSeq  int
	timer   *time.Timer
}

func NewWorkflow(api ActivePromoFetcher, errTTL time.Duration, log *slog.Logger) *Workflow {
	if errTTL <= 0 {
		errTTL = 3 * time.Second
	}
	return &Workflow{api: api, errTTL: errTTL, log: log}
}

func (w *Workflow) SetInput(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input = s
}

// Apply matches the entered code against the currently active promo.
// Blank input is a no-op. A match applies the promo and clears input and
// error; a mismatch or a fetch failure sets the rejection message, which
// self-clears after the configured delay without affecting applied state.
func (w *Workflow) Apply(ctx context.Context, input string) State {
	code := strings.ToUpper(strings.TrimSpace(input))
	if code == "" {
		return w.State()
	}

	active, err := w.api.FetchActivePromo(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.log.Warn("active promo fetch failed", "err", err)
	}
	if err != nil || active == nil || active.Code != code {
		w.rejectLocked()
		return w.stateLocked()
	}

	applied := *active
	w.applied = &applied
	w.input = ""
	w.errMsg = ""
	w.errSeq++
	return w.stateLocked()
}

// Clear resets every field, including mid-checkout-preparation.
func (w *Workflow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.errSeq++
	w.input = ""
	w.applied = nil
	w.errMsg = ""
}

// Applied returns a copy of the applied promo, or nil.
func (w *Workflow) Applied() *domain.PromoCode {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.applied == nil {
		return nil
	}
	p := *w.applied
	return &p
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Workflow) stateLocked() State {
	st := State{Input: w.input, Error: w.errMsg}
	if w.applied != nil {
		st.AppliedCode = w.applied.Code
		st.IsApplied = true
	}
	return st
}

// rejectLocked sets the rejection message and (re)schedules its expiry.
// The sequence counter keeps a stale timer from clearing a newer message:
// rapid repeated invalid submissions each get the full delay.
func (w *Workflow) rejectLocked() {
	w.errMsg = ErrInvalidCode
	w.errSeq++
	seq := w.errSeq
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.errTTL, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.errSeq == seq {
			w.errMsg = ""
		}
	})
}
