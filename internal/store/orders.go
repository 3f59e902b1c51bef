package store

import (
	"context"
	"database/sql"
	"fmt"

	"groupbuy-service/internal/models"
)

// OrderFilter narrows order listings. Zero values mean "no constraint".
type OrderFilter struct {
	VendorID   int64
	DealID     int64
	SupplierID int64
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key.
// Returns nil without error when no order carries the key.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves orders matching the filter. The supplier constraint
// joins through deals since orders carry no supplier column of their own.
func (s *Store) GetOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := "SELECT o.* FROM orders o"
	args := []interface{}{}

	if filter.SupplierID != 0 {
		query += " JOIN deals d ON d.id = o.deal_id"
	}
	query += " WHERE 1=1"

	if filter.VendorID != 0 {
		args = append(args, filter.VendorID)
		query += fmt.Sprintf(" AND o.vendor_id = $%d", len(args))
	}
	if filter.DealID != 0 {
		args = append(args, filter.DealID)
		query += fmt.Sprintf(" AND o.deal_id = $%d", len(args))
	}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		query += fmt.Sprintf(" AND d.supplier_id = $%d", len(args))
	}
	query += " ORDER BY o.created_at DESC"

	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, query, args...)
	return orders, err
}

// UpdateOrderStatus updates an order's status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
