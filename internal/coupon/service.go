// Package coupon implements coupon lookup, validity and usage-limit
// enforcement. Validation is side-effect free; the usage counter is
// incremented only when an order commits.
package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/pricing"
)

var (
	ErrNotFound      = errors.New("coupon not found")
	ErrExpired       = errors.New("coupon expired")
	ErrUsageExceeded = errors.New("coupon usage limit reached")
)

// Result holds a validated coupon together with the discount it grants
// against the subtotal it was validated for.
type Result struct {
	Coupon   models.Coupon
	Discount decimal.Decimal
}

// Service validates and redeems coupons against a registry.
type Service struct {
	registry Registry
	now      func() time.Time
}

// NewService creates a coupon service.
func NewService(registry Registry) *Service {
	return &Service{
		registry: registry,
		now:      time.Now,
	}
}

// Validate looks up a code and checks expiry and usage limits against the
// current time. It computes the discount for the given subtotal but does
// not consume a use.
func (s *Service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Result, error) {
	c, err := s.registry.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !now.Before(c.ExpiresAt) {
		return nil, ErrExpired
	}
	if c.UsedCount >= c.MaxUses {
		return nil, ErrUsageExceeded
	}

	return &Result{
		Coupon:   *c,
		Discount: pricing.CouponDiscount(subtotal, *c),
	}, nil
}

// Redeem consumes one use of the coupon. It is logically part of
// committing an order and must be called exactly once per committed
// checkout attempt.
func (s *Service) Redeem(ctx context.Context, code string) error {
	return s.registry.Redeem(ctx, code)
}
