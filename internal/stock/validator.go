// Package stock implements the pre-payment availability check. The check
// holds no reservation: stock is re-checked and decremented atomically at
// order-commit time.
package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/calebmoreno/storefront/internal/models"
	"github.com/calebmoreno/storefront/internal/repository"
)

// ErrOutOfStock is returned when the requested quantity exceeds the
// catalog's current stock level.
var ErrOutOfStock = errors.New("out of stock")

// Catalog is the slice of the product repository the validator needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// Validator checks line item availability against the catalog.
type Validator struct {
	catalog Catalog
}

// NewValidator creates a stock validator.
func NewValidator(catalog Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// CheckStock fails when the product is missing or quantity exceeds the
// current stock level. It must run before any payment side effect.
func (v *Validator) CheckStock(ctx context.Context, productID string, quantity int) error {
	product, err := v.catalog.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if quantity > product.Stock {
		return fmt.Errorf("product %s: %w (have %d, want %d)",
			productID, ErrOutOfStock, product.Stock, quantity)
	}
	return nil
}

// CheckCart validates every line. The first failing line aborts the
// whole check.
func (v *Validator) CheckCart(ctx context.Context, lines []models.CartLine) error {
	for _, line := range lines {
		if err := v.CheckStock(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// IsAvailabilityError reports whether err is a stock or catalog lookup
// failure the buyer can act on.
func IsAvailabilityError(err error) bool {
	return errors.Is(err, ErrOutOfStock) || errors.Is(err, repository.ErrProductNotFound)
}
