package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrLineNotFound    = errors.New("cart line not found")
)

// CartLine is one product entry in a cart, keyed by ProductID.
type CartLine struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageRef  string
}

func (l CartLine) Validate() error {
	if l.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// CartSnapshot is the client's last-known copy of a user's cart. It is
// always subordinate to the remote service's state; it lives only in
// memory and is replaced wholesale on every refresh.
type CartSnapshot struct {
	OwnerID string
	Lines   []CartLine
}

func (s CartSnapshot) IsEmpty() bool { return len(s.Lines) == 0 }

// Line returns the entry for productID, if present.
func (s CartSnapshot) Line(productID string) (CartLine, bool) {
	for _, l := range s.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// ItemCount is the total quantity across all lines (the badge number).
func (s CartSnapshot) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
