package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponType enumerates the supported discount strategies.
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

// Coupon is a code granting a percentage or fixed discount, capped by a
// usage counter and an expiry.
type Coupon struct {
	Code      string          `json:"code"`
	Type      CouponType      `json:"type"`
	Value     decimal.Decimal `json:"value"`
	MaxUses   int             `json:"maxUses"`
	UsedCount int             `json:"usedCount"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Usable reports whether the coupon can still be redeemed at the given time.
func (c Coupon) Usable(now time.Time) bool {
	return c.UsedCount < c.MaxUses && now.Before(c.ExpiresAt)
}

// CouponSnapshot is the immutable coupon summary stored on an order.
type CouponSnapshot struct {
	Code  string          `json:"code"`
	Type  CouponType      `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Snapshot captures the coupon fields that matter after redemption.
func (c Coupon) Snapshot() CouponSnapshot {
	return CouponSnapshot{Code: c.Code, Type: c.Type, Value: c.Value}
}
