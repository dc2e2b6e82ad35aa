package models

// CheckoutRequest is the shared body shape for online checkout and
// cash order registration.
type CheckoutRequest struct {
	CartItems     []CartLine   `json:"cartItems"`
	ShippingData  ShippingData `json:"shippingData"`
	UserID        string       `json:"userId"`
	AppliedCoupon string       `json:"appliedCoupon,omitempty"`
}

// CheckoutResponse is returned from POST /api/checkout on success.
// URL is the provider's hosted payment redirect.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// CashOrderResponse is returned from POST /api/orders/cash.
type CashOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId,omitempty"`
}

// ErrorResponse is the typed failure shape surfaced to the buyer.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusUpdateRequest is the admin body for PATCH /api/orders/{orderId}/status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}
