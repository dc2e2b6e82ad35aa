package coupon

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/calebmoreno/storefront/internal/models"
)

// Registry provides lookup and redemption of coupons. Redeem must be
// atomic with respect to concurrent redemptions of the same code.
type Registry interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	// Redeem increments the usage counter as a compare-and-increment
	// bounded by MaxUses. It fails with ErrUsageExceeded when the
	// coupon is exhausted and never overshoots under concurrency.
	Redeem(ctx context.Context, code string) error
}

// InMemoryRegistry implements Registry with a mutex-guarded map fronted
// by a bloom filter, so unknown codes are rejected without a lookup.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	coupons map[string]models.Coupon
	filter  *bloom.BloomFilter
}

// NewInMemoryRegistry creates a registry seeded with the given coupons.
func NewInMemoryRegistry(coupons []models.Coupon) *InMemoryRegistry {
	n := uint(len(coupons))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, 0.01)

	byCode := make(map[string]models.Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
		filter.AddString(c.Code)
	}

	return &InMemoryRegistry{
		coupons: byCode,
		filter:  filter,
	}
}

// GetByCode returns a copy of the coupon for the given code.
func (r *InMemoryRegistry) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	// Bloom filter short-circuit: a negative is definitive.
	if !r.filter.TestString(code) {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.coupons[code]
	if !exists {
		return nil, ErrNotFound
	}
	return &c, nil
}

// Redeem performs the compare-and-increment of the usage counter.
func (r *InMemoryRegistry) Redeem(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.coupons[code]
	if !exists {
		return ErrNotFound
	}
	if c.UsedCount >= c.MaxUses {
		return ErrUsageExceeded
	}

	c.UsedCount++
	r.coupons[code] = c
	return nil
}
