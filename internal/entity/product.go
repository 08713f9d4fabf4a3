package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	ImageRef    string
	Description string
	Rating      float64
	Sold        int
	Location    string
	Category    string
}
