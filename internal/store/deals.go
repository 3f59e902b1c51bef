package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"groupbuy-service/internal/models"
)

// DealFilter narrows deal listings. Zero values mean "no constraint".
type DealFilter struct {
	Status       string
	ApprovedOnly bool
	SupplierID   int64
}

// CreateDeal inserts a new deal snapshot
func (s *Store) CreateDeal(ctx context.Context, deal *models.Deal) error {
	query := `
		INSERT INTO deals (product_id, supplier_id, moq, end_time, status, is_approved, current_count, participants_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, deal, query,
		deal.ProductID, deal.SupplierID, deal.MOQ, deal.EndTime,
		deal.Status, deal.IsApproved, deal.CurrentCount, deal.ParticipantsCount)
}

// GetDealByID retrieves a deal by ID
func (s *Store) GetDealByID(ctx context.Context, id int64) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.GetContext(ctx, &deal, "SELECT * FROM deals WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deal %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// GetDeals retrieves deals matching the filter
func (s *Store) GetDeals(ctx context.Context, filter DealFilter) ([]models.Deal, error) {
	query := "SELECT * FROM deals WHERE 1=1"
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ApprovedOnly {
		query += " AND is_approved = TRUE"
	}
	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		query += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	var deals []models.Deal
	err := s.db.SelectContext(ctx, &deals, query, args...)
	return deals, err
}

// ApproveDeal sets the approval flag
func (s *Store) ApproveDeal(ctx context.Context, dealID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE deals SET is_approved = TRUE, updated_at = NOW() WHERE id = $1", dealID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	return nil
}

// RejectDeal marks a deal rejected (terminal)
func (s *Store) RejectDeal(ctx context.Context, dealID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE deals SET is_approved = FALSE, status = $1, updated_at = NOW() WHERE id = $2",
		models.DealStatusRejected, dealID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	return nil
}

// SetDealStatus updates a deal's status
func (s *Store) SetDealStatus(ctx context.Context, dealID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE deals SET status = $1, updated_at = NOW() WHERE id = $2", status, dealID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}
	return nil
}

// MarkDealExpired lazily persists read-time expiry. The status guard keeps
// it from clobbering a terminal state written by a concurrent transaction.
func (s *Store) MarkDealExpired(ctx context.Context, dealID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE deals SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN ($3, $4)",
		models.DealStatusExpired, dealID, models.DealStatusActive, models.DealStatusPaused)
	return err
}

// JoinDealTx inserts an order and increments the deal's progress counters as
// one transaction. The deal row is locked FOR UPDATE and its joinability
// revalidated under the lock, so concurrent joins serialize on the row and
// the counters can never lose an update. The counter arithmetic happens
// in-place in SQL, never as a client-side read-modify-write.
//
// Over-subscription past the MOQ is allowed; the join that pushes
// current_count to or past the MOQ flips the deal to completed in the same
// statement. Returns the post-increment deal snapshot.
func (s *Store) JoinDealTx(ctx context.Context, order *models.Order) (*models.Deal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var deal models.Deal
	err = tx.GetContext(ctx, &deal, "SELECT * FROM deals WHERE id = $1 FOR UPDATE", order.DealID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deal %d: %w", order.DealID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock deal: %w", err)
	}

	if !deal.IsApproved {
		return nil, fmt.Errorf("deal %d: %w", deal.ID, ErrDealNotApproved)
	}
	if deal.Status != models.DealStatusActive {
		return nil, fmt.Errorf("deal %d is %s: %w", deal.ID, deal.Status, ErrDealNotActive)
	}
	if !deal.EndTime.After(time.Now()) {
		return nil, fmt.Errorf("deal %d: %w", deal.ID, ErrDealEnded)
	}

	orderQuery := `
		INSERT INTO orders (deal_id, vendor_id, quantity, unit_price, total_amount, payment_method, idempotency_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, order, orderQuery,
		order.DealID, order.VendorID, order.Quantity, order.UnitPrice,
		order.TotalAmount, order.PaymentMethod, order.IdempotencyKey, order.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	dealQuery := `
		UPDATE deals
		SET current_count = current_count + $1,
		    participants_count = participants_count + 1,
		    status = CASE WHEN current_count + $1 >= moq THEN $2 ELSE status END,
		    updated_at = NOW()
		WHERE id = $3
		RETURNING *`

	var updated models.Deal
	err = tx.GetContext(ctx, &updated, dealQuery, order.Quantity, models.DealStatusCompleted, order.DealID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment deal counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit join: %w", err)
	}

	return &updated, nil
}
