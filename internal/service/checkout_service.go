package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calebmoreno/storefront/internal/coupon"
	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/notify"
	"github.com/calebmoreno/storefront/internal/payment"
	"github.com/calebmoreno/storefront/internal/pricing"
	"github.com/calebmoreno/storefront/internal/repository"
	"github.com/calebmoreno/storefront/internal/stock"
)

var (
	ErrEmptyCart       = errors.New("cart must contain at least one item")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrMissingBuyer    = errors.New("buyer id is required")
)

// RedirectURLs are the hosted payment page redirect targets plus the
// webhook endpoint the provider should notify.
type RedirectURLs struct {
	Success         string
	Failure         string
	Pending         string
	NotificationURL string
}

// CheckoutService orchestrates a checkout attempt: pricing, coupon and
// stock validation, then either a hosted payment preference (online) or
// a synchronous cash order.
type CheckoutService struct {
	products  repository.ProductRepository
	validator *stock.Validator
	coupons   *coupon.Service
	gateway   payment.Gateway
	orders    repository.OrderStore
	notifier  notify.Notifier
	urls      RedirectURLs
	log       *slog.Logger
}

// NewCheckoutService wires the checkout dependencies.
func NewCheckoutService(
	products repository.ProductRepository,
	coupons *coupon.Service,
	gateway payment.Gateway,
	orders repository.OrderStore,
	notifier notify.Notifier,
	urls RedirectURLs,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		products:  products,
		validator: stock.NewValidator(products),
		coupons:   coupons,
		gateway:   gateway,
		orders:    orders,
		notifier:  notifier,
		urls:      urls,
		log:       log,
	}
}

// quote is the validated, priced view of a checkout request.
type quote struct {
	pricing.Quote
	snapshots []models.OrderLine
	coupon    *models.Coupon
}

// prepare runs the side-effect-free half of a checkout: request
// validation, product lookup, pricing, coupon validation and the
// pre-payment stock check. Any failure here leaves zero side effects.
func (s *CheckoutService) prepare(ctx context.Context, req models.CheckoutRequest) (*quote, error) {
	if len(req.CartItems) == 0 {
		return nil, ErrEmptyCart
	}
	if req.UserID == "" {
		return nil, ErrMissingBuyer
	}

	lines := make([]pricing.Line, 0, len(req.CartItems))
	snapshots := make([]models.OrderLine, 0, len(req.CartItems))

	for _, item := range req.CartItems {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		lines = append(lines, pricing.LineFromProduct(*product, item.Quantity))
		snapshots = append(snapshots, models.OrderLine{
			ProductID:       product.ID,
			Name:            product.Name,
			UnitPrice:       product.Price,
			DiscountPercent: product.DiscountPercent,
			Quantity:        item.Quantity,
		})
	}

	var applied *models.Coupon
	subtotal := pricing.Subtotal(lines)
	if req.AppliedCoupon != "" {
		result, err := s.coupons.Validate(ctx, req.AppliedCoupon, subtotal)
		if err != nil {
			return nil, err
		}
		applied = &result.Coupon
	}

	// Stock is gated per line before any payment side effect; the first
	// failing line aborts the whole checkout.
	if err := s.validator.CheckCart(ctx, req.CartItems); err != nil {
		return nil, err
	}

	return &quote{
		Quote:     pricing.QuoteCart(lines, applied),
		snapshots: snapshots,
		coupon:    applied,
	}, nil
}

// CheckoutOnline builds a payment preference and returns the provider's
// redirect URL. No local order is created; order creation is deferred to
// the webhook path, since the provider's confirmation is the only
// authoritative signal that money changed hands.
func (s *CheckoutService) CheckoutOnline(ctx context.Context, req models.CheckoutRequest) (string, error) {
	q, err := s.prepare(ctx, req)
	if err != nil {
		return "", err
	}

	redistributed := pricing.RedistributeLines(q.Lines, q.Subtotal, q.GrandTotal)

	items := make([]payment.PreferenceItem, 0, len(redistributed))
	refs := make([]payment.ItemRef, 0, len(redistributed))
	for i, line := range redistributed {
		items = append(items, payment.PreferenceItem{
			ProductID: line.ProductID,
			Title:     q.snapshots[i].Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
		refs = append(refs, payment.ItemRef{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	prefReq := payment.PreferenceRequest{
		Items: items,
		Metadata: payment.Metadata{
			BuyerID:    req.UserID,
			CouponCode: req.AppliedCoupon,
			Items:      refs,
			Shipping:   req.ShippingData,
		},
		BackURLs: payment.BackURLs{
			Success: s.urls.Success,
			Failure: s.urls.Failure,
			Pending: s.urls.Pending,
		},
		NotificationURL: s.urls.NotificationURL,
	}

	pref, err := s.gateway.CreatePreference(ctx, prefReq)
	if err != nil {
		return "", fmt.Errorf("create preference: %w", err)
	}

	s.log.Info("payment preference created",
		"preference_id", pref.ID,
		"buyer_id", req.UserID,
		"total", q.GrandTotal.StringFixed(2),
	)
	return pref.InitPoint, nil
}

// CheckoutCash registers a cash order synchronously. Stock is
// re-checked and decremented atomically at commit time, and the coupon
// use is consumed as part of the commit.
func (s *CheckoutService) CheckoutCash(ctx context.Context, req models.CheckoutRequest) (*models.Order, error) {
	q, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.decrementStock(ctx, req.CartItems); err != nil {
		return nil, err
	}

	if q.coupon != nil {
		if err := s.coupons.Redeem(ctx, q.coupon.Code); err != nil {
			s.restoreStock(ctx, req.CartItems)
			return nil, err
		}
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		Items:         q.snapshots,
		Shipping:      req.ShippingData,
		BuyerID:       req.UserID,
		PaymentMethod: models.PaymentCash,
		Total:         q.GrandTotal,
		Status:        models.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if q.coupon != nil {
		snapshot := q.coupon.Snapshot()
		order.Coupon = &snapshot
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.restoreStock(ctx, req.CartItems)
		return nil, fmt.Errorf("create cash order: %w", err)
	}

	s.notifier.OrderCreated(ctx, order)
	s.log.Info("cash order created",
		"order_id", order.ID,
		"buyer_id", order.BuyerID,
		"total", order.Total.StringFixed(2),
	)
	return order, nil
}

// decrementStock commits the stock for every line, rolling back earlier
// decrements when a later line fails.
func (s *CheckoutService) decrementStock(ctx context.Context, items []models.CartLine) error {
	for i, item := range items {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.restoreStock(ctx, items[:i])
			return err
		}
	}
	return nil
}

// restoreStock undoes decrements after a failed commit. Restore failures
// are logged; the products were present moments ago.
func (s *CheckoutService) restoreStock(ctx context.Context, items []models.CartLine) {
	for _, item := range items {
		if err := s.products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.log.Error("failed to restore stock",
				"product_id", item.ProductID,
				"quantity", item.Quantity,
				"error", err,
			)
		}
	}
}

// IsValidationError reports whether err should surface to the buyer as a
// 4xx result rather than a server failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrMissingBuyer) ||
		errors.Is(err, repository.ErrInsufficientStock) ||
		stock.IsAvailabilityError(err) ||
		errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrExpired) ||
		errors.Is(err, coupon.ErrUsageExceeded)
}
