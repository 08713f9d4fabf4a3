// Package pricing derives monetary totals from a cart snapshot. It is
// pure: no state, no side effects, deterministic for a given snapshot
// and applied promo.
package pricing

import (
	"github.com/shopspring/decimal"

	domain "github.com/iexcalibur/lenny-storefront/internal/entity"
)

// Totals keeps unrounded values; rounding happens only at presentation
// so repeated renders never compound rounding error.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// DisplayTotals is the 2-fraction-digit presentation form.
type DisplayTotals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal: t.Subtotal.StringFixed(2),
		Discount: t.Discount.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}

// Compute returns subtotal, discount and total for the snapshot.
// applied is the promo currently applied to the cart, or nil. The
// discount uses the server-supplied rate of the applied promo; the
// checkout submission carries only the promo code, never these numbers.
func Compute(snap domain.CartSnapshot, applied *domain.PromoCode) Totals {
	subtotal := decimal.Zero
	for _, l := range snap.Lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount := decimal.Zero
	if applied != nil {
		discount = subtotal.Mul(applied.DiscountRate)
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{Subtotal: subtotal, Discount: discount, Total: total}
}
