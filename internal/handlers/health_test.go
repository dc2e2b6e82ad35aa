package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calebmoreno/storefront/pkg/logger"
)

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler(logger.New("error"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("status = %s, want healthy", response.Status)
	}

	if response.Service != "storefront-checkout" {
		t.Errorf("service = %s, want storefront-checkout", response.Service)
	}

	if response.Version == "" {
		t.Error("version must not be empty")
	}

	if response.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}
}
