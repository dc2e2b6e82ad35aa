package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/calebmoreno/storefront/internal/models"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    buyer_id        TEXT NOT NULL,
    payment_method  TEXT NOT NULL,
    payment_id      TEXT,
    total           NUMERIC(12,2) NOT NULL,
    status          TEXT NOT NULL,
    coupon_code     TEXT,
    coupon_type     TEXT,
    coupon_value    NUMERIC(12,2),
    ship_name       TEXT NOT NULL DEFAULT '',
    ship_email      TEXT NOT NULL DEFAULT '',
    ship_phone      TEXT NOT NULL DEFAULT '',
    ship_address    TEXT NOT NULL DEFAULT '',
    ship_city       TEXT NOT NULL DEFAULT '',
    ship_postal     TEXT NOT NULL DEFAULT '',
    ship_notes      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS orders_payment_id_idx
    ON orders (payment_id) WHERE payment_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS order_items (
    id               BIGSERIAL PRIMARY KEY,
    order_id         TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id       TEXT NOT NULL,
    name             TEXT NOT NULL,
    unit_price       NUMERIC(12,2) NOT NULL,
    discount_percent INT NOT NULL DEFAULT 0,
    quantity         INT NOT NULL
);
`

// PostgresOrderStore implements OrderStore on Postgres. The partial
// unique index on payment_id is the idempotency backstop for concurrent
// webhook deliveries.
type PostgresOrderStore struct {
	db *sql.DB
}

// NewPostgresOrderStore wraps an open database handle.
func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

// EnsureSchema creates the order tables if they do not exist.
func (s *PostgresOrderStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ordersSchema); err != nil {
		return fmt.Errorf("ensure orders schema: %w", err)
	}
	return nil
}

// Create inserts a new order.
func (s *PostgresOrderStore) Create(ctx context.Context, order *models.Order) error {
	return withRetry(ctx, s.db, DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}
		return insertItems(ctx, tx, order)
	})
}

// CreateFromPayment inserts an order keyed by its payment id, reporting
// false when one already exists.
func (s *PostgresOrderStore) CreateFromPayment(ctx context.Context, order *models.Order) (bool, error) {
	created := false
	err := withRetry(ctx, s.db, DefaultTxOptions(), func(tx *sql.Tx) error {
		created = false

		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, buyer_id, payment_method, payment_id, total, status,
			                    coupon_code, coupon_type, coupon_value,
			                    ship_name, ship_email, ship_phone, ship_address,
			                    ship_city, ship_postal, ship_notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			ON CONFLICT (payment_id) WHERE payment_id IS NOT NULL DO NOTHING`,
			orderArgs(order)...)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if rows == 0 {
			return nil
		}

		if err := insertItems(ctx, tx, order); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return created, nil
}

// GetByID returns an order and its items.
func (s *PostgresOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return s.getOrder(ctx, "id = $1", id)
}

// GetByPaymentID returns the order created for a provider payment id.
func (s *PostgresOrderStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return s.getOrder(ctx, "payment_id = $1", paymentID)
}

// List returns all orders, newest first, without items.
func (s *PostgresOrderStore) List(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// UpdateStatus applies a status transition with the row locked, enforcing
// the transition table.
func (s *PostgresOrderStore) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	err := withRetry(ctx, s.db, DefaultTxOptions(), func(tx *sql.Tx) error {
		var current models.OrderStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if !current.CanTransition(status) {
			return ErrInvalidTransition
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1 WHERE id = $2`, status, id); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

const orderColumns = `id, buyer_id, payment_method, COALESCE(payment_id, ''),
       total, status, coupon_code, coupon_type, coupon_value,
       ship_name, ship_email, ship_phone, ship_address,
       ship_city, ship_postal, ship_notes, created_at`

func orderArgs(order *models.Order) []any {
	var paymentID any
	if order.PaymentID != "" {
		paymentID = order.PaymentID
	}

	var couponCode, couponType any
	var couponValue any
	if order.Coupon != nil {
		couponCode = order.Coupon.Code
		couponType = string(order.Coupon.Type)
		couponValue = order.Coupon.Value
	}

	return []any{
		order.ID, order.BuyerID, order.PaymentMethod, paymentID,
		order.Total, order.Status, couponCode, couponType, couponValue,
		order.Shipping.Name, order.Shipping.Email, order.Shipping.Phone,
		order.Shipping.Address, order.Shipping.City, order.Shipping.PostalCode,
		order.Shipping.Notes, order.CreatedAt,
	}
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, payment_method, payment_id, total, status,
		                    coupon_code, coupon_type, coupon_value,
		                    ship_name, ship_email, ship_phone, ship_address,
		                    ship_city, ship_postal, ship_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		orderArgs(order)...)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, discount_percent, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, item.ProductID, item.Name, item.UnitPrice, item.DiscountPercent, item.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var couponCode, couponType sql.NullString
	var couponValue decimal.NullDecimal

	err := row.Scan(
		&order.ID, &order.BuyerID, &order.PaymentMethod, &order.PaymentID,
		&order.Total, &order.Status, &couponCode, &couponType, &couponValue,
		&order.Shipping.Name, &order.Shipping.Email, &order.Shipping.Phone,
		&order.Shipping.Address, &order.Shipping.City, &order.Shipping.PostalCode,
		&order.Shipping.Notes, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if couponCode.Valid {
		order.Coupon = &models.CouponSnapshot{
			Code:  couponCode.String,
			Type:  models.CouponType(couponType.String),
			Value: couponValue.Decimal,
		}
	}
	return &order, nil
}

func (s *PostgresOrderStore) getOrder(ctx context.Context, where string, arg any) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+where, arg)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, discount_percent, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderLine
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice,
			&item.DiscountPercent, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}
