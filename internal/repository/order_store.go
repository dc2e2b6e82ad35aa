package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/calebmoreno/storefront/internal/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// OrderStore persists orders. The storefront and the webhook path share a
// single store so both payment methods end up with the same status
// vocabulary.
type OrderStore interface {
	// Create inserts a new order. Used by the cash checkout path.
	Create(ctx context.Context, order *models.Order) error

	// CreateFromPayment inserts an order keyed by its provider payment
	// id. It reports false without error when an order for that payment
	// id already exists, making webhook retries a no-op.
	CreateFromPayment(ctx context.Context, order *models.Order) (bool, error)

	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)

	// UpdateStatus applies an admin-driven transition, enforcing the
	// order status transition table.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

// InMemoryOrderStore implements OrderStore with mutex-guarded maps and a
// secondary index by payment id.
type InMemoryOrderStore struct {
	mu          sync.RWMutex
	orders      map[string]models.Order
	byPaymentID map[string]string
}

// NewInMemoryOrderStore creates an empty in-memory order store.
func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{
		orders:      make(map[string]models.Order),
		byPaymentID: make(map[string]string),
	}
}

// Create inserts a new order.
func (s *InMemoryOrderStore) Create(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = *order
	if order.PaymentID != "" {
		s.byPaymentID[order.PaymentID] = order.ID
	}
	return nil
}

// CreateFromPayment inserts an order idempotently keyed by payment id.
func (s *InMemoryOrderStore) CreateFromPayment(ctx context.Context, order *models.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPaymentID[order.PaymentID]; exists {
		return false, nil
	}

	s.orders[order.ID] = *order
	s.byPaymentID[order.PaymentID] = order.ID
	return true, nil
}

// GetByID returns an order by its ID.
func (s *InMemoryOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// GetByPaymentID returns the order created for a provider payment id.
func (s *InMemoryOrderStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byPaymentID[paymentID]
	if !exists {
		return nil, ErrOrderNotFound
	}
	order := s.orders[id]
	return &order, nil
}

// List returns all orders, newest first.
func (s *InMemoryOrderStore) List(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// UpdateStatus applies a status transition if the transition table allows it.
func (s *InMemoryOrderStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	if !order.Status.CanTransition(status) {
		return nil, ErrInvalidTransition
	}

	order.Status = status
	s.orders[id] = order
	return &order, nil
}
