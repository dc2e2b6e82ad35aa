package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/calebmoreno/storefront/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDiscountedUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount int
		want     string
	}{
		{name: "no discount", price: "100", discount: 0, want: "100"},
		{name: "ten percent", price: "100", discount: 10, want: "90"},
		{name: "full discount", price: "100", discount: 100, want: "0"},
		{name: "over full clamps to zero", price: "100", discount: 150, want: "0"},
		{name: "negative treated as no-op", price: "50", discount: -5, want: "50"},
		{name: "odd price keeps precision", price: "9.99", discount: 25, want: "7.4925"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountedUnitPrice(dec(tt.price), tt.discount)
			require.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestDiscountedUnitPriceBounds(t *testing.T) {
	// For any discount in [0,100] the result stays within [0, price].
	price := dec("37.41")
	for d := 0; d <= 100; d++ {
		got := DiscountedUnitPrice(price, d)
		require.False(t, got.IsNegative(), "discount %d produced negative price", d)
		require.False(t, got.GreaterThan(price), "discount %d raised the price", d)
	}
}

func TestSubtotalMonotonic(t *testing.T) {
	base := []Line{{ProductID: "1", UnitPrice: dec("10"), Quantity: 1}}
	moreQty := []Line{{ProductID: "1", UnitPrice: dec("10"), Quantity: 2}}
	higherPrice := []Line{{ProductID: "1", UnitPrice: dec("11"), Quantity: 1}}

	require.True(t, Subtotal(moreQty).GreaterThan(Subtotal(base)))
	require.True(t, Subtotal(higherPrice).GreaterThan(Subtotal(base)))
}

func TestCouponDiscount(t *testing.T) {
	subtotal := dec("230")

	percentage := models.Coupon{Type: models.CouponPercentage, Value: dec("10")}
	require.True(t, CouponDiscount(subtotal, percentage).Equal(dec("23")))

	fixed := models.Coupon{Type: models.CouponFixed, Value: dec("50")}
	require.True(t, CouponDiscount(subtotal, fixed).Equal(dec("50")))

	// A fixed discount exceeding the subtotal clamps to the subtotal.
	oversized := models.Coupon{Type: models.CouponFixed, Value: dec("500")}
	require.True(t, CouponDiscount(subtotal, oversized).Equal(subtotal))
}

func TestGrandTotalNeverNegative(t *testing.T) {
	require.True(t, GrandTotal(dec("100"), dec("150")).Equal(decimal.Zero))
	require.True(t, GrandTotal(dec("100"), dec("100")).Equal(decimal.Zero))
	require.True(t, GrandTotal(dec("100"), dec("40")).Equal(dec("60")))
}

func TestQuoteCartWorkedScenario(t *testing.T) {
	// Cart: 2 x 100 at 10% product discount, 1 x 50 undiscounted,
	// with a 10% coupon on top.
	lines := []Line{
		{ProductID: "a", UnitPrice: dec("100"), DiscountPercent: 10, Quantity: 2},
		{ProductID: "b", UnitPrice: dec("50"), DiscountPercent: 0, Quantity: 1},
	}
	coupon := models.Coupon{
		Code:      "TENOFF",
		Type:      models.CouponPercentage,
		Value:     dec("10"),
		MaxUses:   10,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	q := QuoteCart(lines, &coupon)

	require.True(t, q.Subtotal.Equal(dec("230")), "subtotal = %s", q.Subtotal)
	require.True(t, q.CouponDiscount.Equal(dec("23")), "discount = %s", q.CouponDiscount)
	require.True(t, q.GrandTotal.Equal(dec("207")), "grand total = %s", q.GrandTotal)

	redistributed := RedistributeLines(lines, q.Subtotal, q.GrandTotal)
	require.Len(t, redistributed, 2)
	require.True(t, redistributed[0].UnitPrice.Equal(dec("81")), "line 1 = %s", redistributed[0].UnitPrice)
	require.True(t, redistributed[1].UnitPrice.Equal(dec("45")), "line 2 = %s", redistributed[1].UnitPrice)

	sum := decimal.Zero
	for _, line := range redistributed {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	require.True(t, sum.Equal(dec("207")), "redistributed sum = %s", sum)
}

func TestRedistributeLinesBoundedDrift(t *testing.T) {
	// Per-line rounding is not an identity; the sum must land within
	// 0.01 per line of the grand total.
	lines := []Line{
		{ProductID: "a", UnitPrice: dec("19.99"), DiscountPercent: 7, Quantity: 3},
		{ProductID: "b", UnitPrice: dec("4.35"), DiscountPercent: 0, Quantity: 7},
		{ProductID: "c", UnitPrice: dec("133.33"), DiscountPercent: 33, Quantity: 1},
	}
	coupon := models.Coupon{Type: models.CouponFixed, Value: dec("17.77")}

	q := QuoteCart(lines, &coupon)
	redistributed := RedistributeLines(lines, q.Subtotal, q.GrandTotal)

	sum := decimal.Zero
	for _, line := range redistributed {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	tolerance := dec("0.01").Mul(decimal.NewFromInt(int64(len(lines))))
	drift := sum.Sub(q.GrandTotal).Abs()
	require.True(t, drift.LessThanOrEqual(tolerance),
		"drift %s exceeds tolerance %s", drift, tolerance)
}

func TestRedistributeLinesNoCoupon(t *testing.T) {
	lines := []Line{
		{ProductID: "a", UnitPrice: dec("12.50"), DiscountPercent: 20, Quantity: 2},
	}
	q := QuoteCart(lines, nil)

	redistributed := RedistributeLines(lines, q.Subtotal, q.GrandTotal)
	require.True(t, redistributed[0].UnitPrice.Equal(dec("10")),
		"ratio should be 1 without a coupon, got %s", redistributed[0].UnitPrice)
}

func TestRedistributeLinesEmptySubtotal(t *testing.T) {
	redistributed := RedistributeLines(nil, decimal.Zero, decimal.Zero)
	require.Empty(t, redistributed)
}
