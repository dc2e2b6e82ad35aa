// Package webhook consumes payment-confirmation events from the provider
// and materializes orders from them exactly once. Webhook delivery is
// at-least-once, so everything here must be safe under duplicate and
// concurrent delivery.
package webhook

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
	"github.com/calebmoreno/storefront/internal/repository"
)

// EventTypePayment is the only event type that triggers reconciliation.
const EventTypePayment = "payment"

// ErrReconciliation marks a failure the provider should retry: missing
// metadata, unknown products, or a persistence error. It is distinct
// from "already processed", which is a success.
var ErrReconciliation = errors.New("webhook reconciliation failed")

// Event is the inbound webhook body. Only the payment id is read from
// it; amounts and metadata are re-fetched from the provider.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the provider resource id.
type EventData struct {
	ID string `json:"id"`
}

// Reconciler turns confirmed payments into orders.
type Reconciler struct {
	gateway  payment.Gateway
	products repository.ProductRepository
	coupons  *coupon.Service
	orders   repository.OrderStore
	notifier notify.Notifier
	log      *slog.Logger
}

// NewReconciler wires the reconciliation dependencies.
func NewReconciler(
	gateway payment.Gateway,
	products repository.ProductRepository,
	coupons *coupon.Service,
	orders repository.OrderStore,
	notifier notify.Notifier,
	log *slog.Logger,
) *Reconciler {
	return &Reconciler{
		gateway:  gateway,
		products: products,
		coupons:  coupons,
		orders:   orders,
		notifier: notifier,
		log:      log,
	}
}

// Handle processes one webhook delivery. A nil return means the provider
// should receive a 2xx and stop retrying; any error means the delivery
// should be retried.
func (r *Reconciler) Handle(ctx context.Context, event Event) error {
	// Providers expect a 2xx even for event types we do not consume,
	// otherwise they keep retrying.
	if event.Type != EventTypePayment {
		r.log.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}

	if event.Data.ID == "" {
		return fmt.Errorf("%w: event missing payment id", ErrReconciliation)
	}

	// Re-fetch the authoritative payment record; webhook body values are
	// never trusted.
	pay, err := r.gateway.GetPayment(ctx, event.Data.ID)
	if err != nil {
		return fmt.Errorf("fetch payment %s: %w", event.Data.ID, err)
	}

	if pay.Status != payment.PaymentStatusApproved {
		r.log.Info("payment not approved, nothing to reconcile",
			"payment_id", pay.ID, "status", pay.Status)
		return nil
	}

	// Fast path for retried deliveries: an order for this payment id
	// already exists, so this webhook is a no-op success.
	if _, err := r.orders.GetByPaymentID(ctx, pay.ID); err == nil {
		r.log.Info("payment already reconciled", "payment_id", pay.ID)
		return nil
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("%w: lookup payment %s: %v", ErrReconciliation, pay.ID, err)
	}

	order, err := r.buildOrder(ctx, pay)
	if err != nil {
		return err
	}

	decremented, err := r.commitStock(ctx, pay.Metadata.Items)
	if err != nil {
		r.restoreStock(ctx, decremented)
		return err
	}

	created, err := r.orders.CreateFromPayment(ctx, order)
	if err != nil {
		r.restoreStock(ctx, decremented)
		return fmt.Errorf("%w: persist order for payment %s: %v", ErrReconciliation, pay.ID, err)
	}
	if !created {
		// Lost a race against a concurrent delivery of the same payment.
		r.restoreStock(ctx, decremented)
		r.log.Info("payment reconciled concurrently", "payment_id", pay.ID)
		return nil
	}

	// The coupon use is consumed as part of the commit, once per created
	// order. A failure here (limit raced out between checkout and
	// confirmation) cannot undo a paid order, so it is logged only.
	if pay.Metadata.CouponCode != "" {
		if err := r.coupons.Redeem(ctx, pay.Metadata.CouponCode); err != nil {
			r.log.Warn("could not redeem coupon for reconciled order",
				"order_id", order.ID,
				"coupon", pay.Metadata.CouponCode,
				"error", err,
			)
		}
	}

	r.notifier.OrderCreated(ctx, order)
	r.log.Info("order reconciled from payment",
		"order_id", order.ID,
		"payment_id", pay.ID,
		"total", order.Total.StringFixed(2),
	)
	return nil
}

// buildOrder rebuilds the order from the authoritative payment metadata.
func (r *Reconciler) buildOrder(ctx context.Context, pay *payment.Payment) (*models.Order, error) {
	meta := pay.Metadata
	if meta.BuyerID == "" || len(meta.Items) == 0 {
		return nil, fmt.Errorf("%w: payment %s has missing or empty metadata", ErrReconciliation, pay.ID)
	}

	items := make([]models.OrderLine, 0, len(meta.Items))
	for _, ref := range meta.Items {
		if ref.Quantity <= 0 {
			return nil, fmt.Errorf("%w: payment %s metadata has invalid quantity for product %s",
				ErrReconciliation, pay.ID, ref.ProductID)
		}

		product, err := r.products.GetByID(ctx, ref.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: payment %s references unknown product %s",
				ErrReconciliation, pay.ID, ref.ProductID)
		}

		items = append(items, models.OrderLine{
			ProductID:       product.ID,
			Name:            product.Name,
			UnitPrice:       product.Price,
			DiscountPercent: product.DiscountPercent,
			Quantity:        ref.Quantity,
		})
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		Items:         items,
		Shipping:      meta.Shipping,
		BuyerID:       meta.BuyerID,
		PaymentMethod: models.PaymentOnline,
		PaymentID:     pay.ID,
		Total:         pay.TransactionAmount,
		Status:        models.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if meta.CouponCode != "" {
		if result, err := r.coupons.Validate(ctx, meta.CouponCode, pay.TransactionAmount); err == nil {
			snapshot := result.Coupon.Snapshot()
			order.Coupon = &snapshot
		} else {
			// The payment already settled with the coupon applied; a
			// lookup failure only loses the snapshot, not the order.
			r.log.Warn("coupon on paid order no longer resolvable",
				"payment_id", pay.ID, "coupon", meta.CouponCode, "error", err)
		}
	}

	return order, nil
}

// commitStock decrements stock for the confirmed items and returns the
// refs it actually decremented. Money has already changed hands, so an
// availability shortfall cannot abort the order; it is logged as
// oversell instead.
func (r *Reconciler) commitStock(ctx context.Context, items []payment.ItemRef) ([]payment.ItemRef, error) {
	decremented := make([]payment.ItemRef, 0, len(items))
	for _, ref := range items {
		err := r.products.DecrementStock(ctx, ref.ProductID, ref.Quantity)
		if errors.Is(err, repository.ErrInsufficientStock) {
			r.log.Warn("stock oversold between checkout and confirmation",
				"product_id", ref.ProductID, "quantity", ref.Quantity)
			continue
		}
		if err != nil {
			return decremented, fmt.Errorf("%w: decrement stock for product %s: %v",
				ErrReconciliation, ref.ProductID, err)
		}
		decremented = append(decremented, ref)
	}
	return decremented, nil
}

// restoreStock undoes the commit after a lost creation race.
func (r *Reconciler) restoreStock(ctx context.Context, items []payment.ItemRef) {
	for _, ref := range items {
		if err := r.products.IncrementStock(ctx, ref.ProductID, ref.Quantity); err != nil {
			r.log.Error("failed to restore stock",
				"product_id", ref.ProductID, "error", err)
		}
	}
}
