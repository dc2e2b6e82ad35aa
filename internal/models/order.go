package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod selects how a checkout is settled.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCash   PaymentMethod = "cash"
)

// ShippingData carries buyer identity and delivery contact fields.
// It is opaque to pricing logic and passed through to the order.
type ShippingData struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Notes      string `json:"notes,omitempty"`
}

// OrderLine is a product snapshot plus quantity, frozen at purchase time.
type OrderLine struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent int             `json:"discountPercent"`
	Quantity        int             `json:"quantity"`
}

// Order is a confirmed purchase. It is created exactly once per checkout
// attempt, mutated only by status transitions, and never deleted. For
// online payments PaymentID holds the provider's payment id, which is the
// idempotency key preventing duplicate creation on webhook retries.
type Order struct {
	ID            string          `json:"id"`
	Items         []OrderLine     `json:"items"`
	Shipping      ShippingData    `json:"shipping"`
	BuyerID       string          `json:"buyerId"`
	Coupon        *CouponSnapshot `json:"coupon,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentID     string          `json:"paymentId,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}
