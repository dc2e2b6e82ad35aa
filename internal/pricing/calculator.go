// Package pricing implements the price, discount and coupon arithmetic
// for a checkout attempt. All functions are pure and operate on
// decimal.Decimal to avoid float drift; rounding to cents happens only
// at the end of the pipeline.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Line is a cart line joined with its product's pricing fields.
type Line struct {
	ProductID       string
	UnitPrice       decimal.Decimal
	DiscountPercent int
	Quantity        int
}

// LineFromProduct builds a pricing line from a product snapshot.
func LineFromProduct(p models.Product, quantity int) Line {
	return Line{
		ProductID:       p.ID,
		UnitPrice:       p.Price,
		DiscountPercent: p.DiscountPercent,
		Quantity:        quantity,
	}
}

// DiscountedUnitPrice applies the product-level percentage discount.
// A discount of 0 is a no-op; the result is never negative.
func DiscountedUnitPrice(price decimal.Decimal, discountPercent int) decimal.Decimal {
	if discountPercent <= 0 {
		return price
	}
	if discountPercent >= 100 {
		return decimal.Zero
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(discountPercent))).Div(hundred)
	return price.Mul(factor)
}

// Subtotal sums the discounted line totals at full precision.
// No per-line rounding happens here.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		unit := DiscountedUnitPrice(line.UnitPrice, line.DiscountPercent)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// CouponDiscount computes the discount a coupon grants against a subtotal.
// A fixed discount larger than the subtotal is clamped to the subtotal so
// the grand total never goes negative.
func CouponDiscount(subtotal decimal.Decimal, coupon models.Coupon) decimal.Decimal {
	switch coupon.Type {
	case models.CouponPercentage:
		return subtotal.Mul(coupon.Value).Div(hundred)
	case models.CouponFixed:
		if coupon.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return coupon.Value
	}
	return decimal.Zero
}

// GrandTotal is the amount the buyer pays, rounded to cents and floored
// at zero.
func GrandTotal(subtotal, couponDiscount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(couponDiscount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

// RedistributedLine is a line priced for provider-side display, where the
// unit price reflects the line's share of the combined product and coupon
// discount.
type RedistributedLine struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// RedistributeLines scales each line's discounted unit price by
// grandTotal/subtotal so that provider-displayed line totals sum to the
// coupon-adjusted grand total. Per-line rounding means the sum matches
// the grand total within a cents-level tolerance of 0.01 per line, not
// exactly.
func RedistributeLines(lines []Line, subtotal, grandTotal decimal.Decimal) []RedistributedLine {
	ratio := decimal.NewFromInt(1)
	if subtotal.IsPositive() {
		ratio = grandTotal.Div(subtotal)
	}

	out := make([]RedistributedLine, 0, len(lines))
	for _, line := range lines {
		unit := DiscountedUnitPrice(line.UnitPrice, line.DiscountPercent)
		out = append(out, RedistributedLine{
			ProductID: line.ProductID,
			UnitPrice: unit.Mul(ratio).Round(2),
			Quantity:  line.Quantity,
		})
	}
	return out
}

// Quote is the full pricing breakdown for a cart plus optional coupon.
type Quote struct {
	Lines          []Line
	Subtotal       decimal.Decimal
	CouponDiscount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// QuoteCart prices a cart end to end. coupon may be nil.
func QuoteCart(lines []Line, coupon *models.Coupon) Quote {
	subtotal := Subtotal(lines)

	discount := decimal.Zero
	if coupon != nil {
		discount = CouponDiscount(subtotal, *coupon)
	}

	return Quote{
		Lines:          lines,
		Subtotal:       subtotal,
		CouponDiscount: discount,
		GrandTotal:     GrandTotal(subtotal, discount),
	}
}
