package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

const orderColumns = `id, user_id, total_amount, currency, status, items, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o        domain.Order
		currency sql.NullString
		status   sql.NullString
		items    []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &currency, &status, &items, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Currency = currency.String
	o.Status = domain.DefaultOrderStatus
	if status.Valid && status.String != "" {
		o.Status = status.String
	}
	o.Items = make([]domain.OrderItem, 0)
	if len(items) > 0 && string(items) != "null" {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
	}
	return &o, nil
}

// --- OrderStorer Implementation ---

func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	query := `
		INSERT INTO storefront.orders (user_id, total_amount, currency, status, items)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + orderColumns + `;`

	itemsJSON, err := order.ItemsJSON()
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to encode items: %w", err)
	}

	created, err := scanOrder(s.db.QueryRowContext(ctx, query,
		order.UserID, order.TotalAmount, order.Currency, order.Status, string(itemsJSON),
	))
	if err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM storefront.orders
		WHERE user_id = $1
		ORDER BY created_at DESC;`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: ListOrdersByUser failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListOrdersByUser failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListOrdersByUser iteration error: %w", err)
	}
	return orders, nil
}

func (s *PostgresStore) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM storefront.orders
		WHERE id = $1;`

	order, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		// A malformed UUID can never match a row.
		if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepr {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to scan row: %w", err)
	}
	return order, nil
}
