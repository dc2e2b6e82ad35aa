package payment

import (
	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/models"
)

// PreferenceItem is one provider-displayed line item. UnitPrice already
// reflects the line's share of the combined product and coupon discount.
type PreferenceItem struct {
	ProductID string          `json:"id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ItemRef is the minimal cart line stored in preference metadata, enough
// to rebuild the order when the webhook confirms payment.
type ItemRef struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Metadata is the blob attached to a preference and echoed back on the
// authoritative payment resource. It bridges checkout initiation and
// webhook confirmation.
type Metadata struct {
	BuyerID    string              `json:"buyer_id"`
	CouponCode string              `json:"coupon_code,omitempty"`
	Items      []ItemRef           `json:"items"`
	Shipping   models.ShippingData `json:"shipping"`
}

// BackURLs are the redirect targets for the hosted payment page.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest describes what is being purchased.
type PreferenceRequest struct {
	Items           []PreferenceItem `json:"items"`
	Metadata        Metadata         `json:"metadata"`
	BackURLs        BackURLs         `json:"back_urls"`
	NotificationURL string           `json:"notification_url,omitempty"`
}

// Preference is the provider's response to a created preference.
// InitPoint is the hosted payment redirect URL handed to the buyer.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// Payment statuses reported by the provider.
const (
	PaymentStatusApproved = "approved"
	PaymentStatusPending  = "pending"
	PaymentStatusRejected = "rejected"
)

// Payment is the authoritative payment resource fetched by id. Webhook
// bodies are never trusted; this is.
type Payment struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Metadata          Metadata        `json:"metadata"`
}
