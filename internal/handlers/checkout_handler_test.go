package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/coupon"
	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/notify"
	"github.com/calebmoreno/storefront/internal/payment"
	"github.com/calebmoreno/storefront/internal/repository"
	"github.com/calebmoreno/storefront/internal/service"
	"github.com/calebmoreno/storefront/pkg/logger"
)

type stubGateway struct {
	pref *payment.Preference
	err  error
}

func (g *stubGateway) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.pref, nil
}

func (g *stubGateway) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	return nil, payment.ErrProvider
}

func newCheckoutHandler(gateway payment.Gateway) (*CheckoutHandler, *repository.InMemoryOrderStore) {
	log := logger.New("error")
	orders := repository.NewInMemoryOrderStore()
	coupons := coupon.NewService(coupon.NewInMemoryRegistry([]models.Coupon{{
		Code:      "WELCOME10",
		Type:      models.CouponPercentage,
		Value:     decimal.NewFromInt(10),
		MaxUses:   100,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}}))

	svc := service.NewCheckoutService(
		repository.NewInMemoryProductRepository(),
		coupons,
		gateway,
		orders,
		notify.NoopNotifier{},
		service.RedirectURLs{Success: "https://shop.test/ok"},
		log,
	)
	return NewCheckoutHandler(svc, log), orders
}

func checkoutBody(t *testing.T, req models.CheckoutRequest) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestCheckoutOnlineHandler(t *testing.T) {
	tests := []struct {
		name           string
		gateway        *stubGateway
		request        models.CheckoutRequest
		expectedStatus int
		checkBody      func(*testing.T, []byte)
	}{
		{
			name:    "successful checkout returns redirect url",
			gateway: &stubGateway{pref: &payment.Preference{ID: "p1", InitPoint: "https://pay.test/p1"}},
			request: models.CheckoutRequest{
				CartItems: []models.CartLine{{ProductID: "1", Quantity: 2}},
				UserID:    "buyer-1",
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body []byte) {
				var resp models.CheckoutResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal response: %v", err)
				}
				if resp.URL != "https://pay.test/p1" {
					t.Errorf("url = %s, want provider redirect", resp.URL)
				}
			},
		},
		{
			name:    "empty cart rejected",
			gateway: &stubGateway{},
			request: models.CheckoutRequest{
				UserID: "buyer-1",
			},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body []byte) {
				var resp models.ErrorResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("unmarshal response: %v", err)
				}
				if resp.Success {
					t.Error("success must be false for a rejected checkout")
				}
				if resp.Error == "" {
					t.Error("error message must be present")
				}
			},
		},
		{
			name:    "provider failure maps to bad gateway",
			gateway: &stubGateway{err: payment.ErrProvider},
			request: models.CheckoutRequest{
				CartItems: []models.CartLine{{ProductID: "1", Quantity: 1}},
				UserID:    "buyer-1",
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newCheckoutHandler(tt.gateway)

			req := httptest.NewRequest(http.MethodPost, "/api/checkout", checkoutBody(t, tt.request))
			rec := httptest.NewRecorder()
			handler.CheckoutOnline(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.checkBody != nil {
				tt.checkBody(t, rec.Body.Bytes())
			}
		})
	}
}

func TestCheckoutOnlineHandlerBadBody(t *testing.T) {
	handler, _ := newCheckoutHandler(&stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.CheckoutOnline(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCheckoutCashHandler(t *testing.T) {
	handler, orders := newCheckoutHandler(&stubGateway{})

	body := checkoutBody(t, models.CheckoutRequest{
		CartItems:     []models.CartLine{{ProductID: "1", Quantity: 1}},
		UserID:        "buyer-2",
		AppliedCoupon: "WELCOME10",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/orders/cash", body)
	rec := httptest.NewRecorder()
	handler.CheckoutCash(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var resp models.CashOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.OrderID == "" {
		t.Errorf("response = %+v, want success with order id", resp)
	}

	if _, err := orders.GetByID(req.Context(), resp.OrderID); err != nil {
		t.Errorf("order %s not persisted: %v", resp.OrderID, err)
	}
}

func TestCheckoutCashHandlerEmptyCart(t *testing.T) {
	handler, orders := newCheckoutHandler(&stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders/cash",
		checkoutBody(t, models.CheckoutRequest{UserID: "buyer-2"}))
	rec := httptest.NewRecorder()
	handler.CheckoutCash(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	all, _ := orders.List(req.Context())
	if len(all) != 0 {
		t.Errorf("rejected cash checkout created %d orders, want 0", len(all))
	}
}
