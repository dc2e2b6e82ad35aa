package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestClientCreatePreference(t *testing.T) {
	var gotAuth string
	var gotReq PreferenceRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(Preference{
			ID:        "pref-1",
			InitPoint: "https://provider.example/pay/pref-1",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token")
	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items: []PreferenceItem{
			{ProductID: "1", Title: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(81)},
		},
		Metadata: Metadata{
			BuyerID: "buyer-9",
			Items:   []ItemRef{{ProductID: "1", Quantity: 2}},
		},
		BackURLs: BackURLs{Success: "https://shop.example/ok"},
	})

	require.NoError(t, err)
	require.Equal(t, "https://provider.example/pay/pref-1", pref.InitPoint)
	require.Equal(t, "Bearer secret-token", gotAuth)
	require.Equal(t, "buyer-9", gotReq.Metadata.BuyerID)
	require.Len(t, gotReq.Items, 1)
}

func TestClientCreatePreferenceProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-token")
	_, err := client.CreatePreference(context.Background(), PreferenceRequest{})

	require.ErrorIs(t, err, ErrProvider)
}

func TestClientCreatePreferenceMissingInitPoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Preference{ID: "pref-2"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token")
	_, err := client.CreatePreference(context.Background(), PreferenceRequest{})

	require.ErrorIs(t, err, ErrProvider)
}

func TestClientGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/pay-77", r.URL.Path)
		json.NewEncoder(w).Encode(Payment{
			ID:                "pay-77",
			Status:            PaymentStatusApproved,
			TransactionAmount: decimal.NewFromFloat(207.00),
			Metadata: Metadata{
				BuyerID: "buyer-9",
				Items:   []ItemRef{{ProductID: "1", Quantity: 2}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token")
	payment, err := client.GetPayment(context.Background(), "pay-77")

	require.NoError(t, err)
	require.Equal(t, PaymentStatusApproved, payment.Status)
	require.Equal(t, "buyer-9", payment.Metadata.BuyerID)
}

func TestClientGetPaymentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token")
	_, err := client.GetPayment(context.Background(), "missing")

	require.ErrorIs(t, err, ErrProvider)
}
