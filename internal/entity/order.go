package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Order is created server-side on checkout; the client treats it as a
// read-only record from the order history endpoint.
type Order struct {
	ID             string
	OwnerID        string
	Lines          []CartLine
	TotalAmount    decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	CreatedAt      time.Time
}

// OrderConfirmation is the opaque ack returned by checkout. The service
// recomputes totals; the client never submits its own numbers.
type OrderConfirmation struct {
	OrderID string
	Status  Status
}
