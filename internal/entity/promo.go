package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidDiscountRate = errors.New("invalid discount rate")

// PromoCode is the single system-wide promotional code. The remote
// service owns which code is active; the client only matches against it.
type PromoCode struct {
	Code         string
	DiscountRate decimal.Decimal // fraction in [0,1]
}

func (p PromoCode) Validate() error {
	if p.DiscountRate.IsNegative() || p.DiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidDiscountRate
	}
	return nil
}
