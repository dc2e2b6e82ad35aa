package models

import "github.com/shopspring/decimal"

// Product represents a catalog product available for purchase.
// Price is the list price before the product-level discount.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discountPercent"`
	Stock           int             `json:"stock"`
	Category        string          `json:"category"`
}

// CartLine is one (product, quantity) pairing inside a cart.
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
