package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository defines the interface for catalog data access.
// Stock mutations happen at order-commit time and must be atomic with
// respect to concurrent checkouts.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// InMemoryProductRepository implements ProductRepository with in-memory
// storage guarded by a mutex.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates an in-memory catalog with seed data.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	products := map[string]models.Product{
		"1":  {ID: "1", Name: "Chicken Waffle", Price: decimal.NewFromFloat(12.99), DiscountPercent: 0, Stock: 40, Category: "Waffle"},
		"2":  {ID: "2", Name: "Belgian Waffle", Price: decimal.NewFromFloat(10.99), DiscountPercent: 10, Stock: 25, Category: "Waffle"},
		"3":  {ID: "3", Name: "Chocolate Waffle", Price: decimal.NewFromFloat(11.99), DiscountPercent: 0, Stock: 30, Category: "Waffle"},
		"4":  {ID: "4", Name: "Caesar Salad", Price: decimal.NewFromFloat(8.99), DiscountPercent: 0, Stock: 50, Category: "Salad"},
		"5":  {ID: "5", Name: "Greek Salad", Price: decimal.NewFromFloat(9.49), DiscountPercent: 15, Stock: 20, Category: "Salad"},
		"6":  {ID: "6", Name: "Garden Salad", Price: decimal.NewFromFloat(7.99), DiscountPercent: 0, Stock: 35, Category: "Salad"},
		"7":  {ID: "7", Name: "Margherita Pizza", Price: decimal.NewFromFloat(14.99), DiscountPercent: 0, Stock: 15, Category: "Pizza"},
		"8":  {ID: "8", Name: "Pepperoni Pizza", Price: decimal.NewFromFloat(16.99), DiscountPercent: 20, Stock: 15, Category: "Pizza"},
		"9":  {ID: "9", Name: "Veggie Pizza", Price: decimal.NewFromFloat(15.49), DiscountPercent: 0, Stock: 10, Category: "Pizza"},
		"10": {ID: "10", Name: "Classic Burger", Price: decimal.NewFromFloat(13.99), DiscountPercent: 0, Stock: 60, Category: "Burger"},
	}

	return &InMemoryProductRepository{
		products: products,
	}
}

// GetAll returns all products.
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	return products, nil
}

// GetByID returns a product by its ID.
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// DecrementStock atomically re-checks and reduces stock. It fails with
// ErrInsufficientStock when fewer than quantity units remain, leaving
// stock untouched.
func (r *InMemoryProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		return ErrProductNotFound
	}
	if product.Stock < quantity {
		return ErrInsufficientStock
	}

	product.Stock -= quantity
	r.products[id] = product
	return nil
}

// IncrementStock restores stock, used to roll back a partially committed
// multi-line decrement.
func (r *InMemoryProductRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		return ErrProductNotFound
	}

	product.Stock += quantity
	r.products[id] = product
	return nil
}
