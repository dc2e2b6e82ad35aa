package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/repository"
)

type stubCatalog struct {
	products map[string]models.Product
}

func (c *stubCatalog) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[string]models.Product{
		"1": {ID: "1", Name: "Widget", Price: decimal.NewFromInt(10), Stock: 5},
		"2": {ID: "2", Name: "Gadget", Price: decimal.NewFromInt(20), Stock: 0},
	}}
}

func TestCheckStock(t *testing.T) {
	validator := NewValidator(newStubCatalog())

	tests := []struct {
		name      string
		productID string
		quantity  int
		wantErr   error
	}{
		{name: "within stock", productID: "1", quantity: 5, wantErr: nil},
		{name: "exceeds stock", productID: "1", quantity: 6, wantErr: ErrOutOfStock},
		{name: "zero stock", productID: "2", quantity: 1, wantErr: ErrOutOfStock},
		{name: "missing product", productID: "99", quantity: 1, wantErr: repository.ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.CheckStock(context.Background(), tt.productID, tt.quantity)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CheckStock() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckStock() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckCartFirstFailureAborts(t *testing.T) {
	validator := NewValidator(newStubCatalog())

	err := validator.CheckCart(context.Background(), []models.CartLine{
		{ProductID: "1", Quantity: 2},
		{ProductID: "2", Quantity: 1},
		{ProductID: "99", Quantity: 1},
	})

	// The second line already fails; the missing third product must not
	// change the reported error.
	if !errors.Is(err, ErrOutOfStock) {
		t.Errorf("CheckCart() error = %v, want %v", err, ErrOutOfStock)
	}
}

func TestIsAvailabilityError(t *testing.T) {
	if !IsAvailabilityError(ErrOutOfStock) {
		t.Error("ErrOutOfStock should be an availability error")
	}
	if !IsAvailabilityError(repository.ErrProductNotFound) {
		t.Error("ErrProductNotFound should be an availability error")
	}
	if IsAvailabilityError(errors.New("boom")) {
		t.Error("arbitrary errors are not availability errors")
	}
}
