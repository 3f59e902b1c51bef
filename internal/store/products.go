package store

import (
	"context"
	"database/sql"
	"fmt"

	"groupbuy-service/internal/models"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	SupplierID   int64
	CategoryID   int64
	VerifiedOnly bool
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (supplier_id, title, description, moq, bulk_price, stock, category_id, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.SupplierID, p.Title, p.Description, p.MOQ, p.BulkPrice, p.Stock, p.CategoryID, p.IsVerified)
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves products matching the filter
func (s *Store) GetProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE 1=1"
	args := []interface{}{}

	if filter.SupplierID != 0 {
		args = append(args, filter.SupplierID)
		query += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.VerifiedOnly {
		query += " AND is_verified = TRUE"
	}
	query += " ORDER BY created_at DESC"

	var products []models.Product
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// UpdateProduct updates supplier-owned product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET title = $1, description = $2, moq = $3, bulk_price = $4, stock = $5,
		    category_id = $6, updated_at = NOW()
		WHERE id = $7`,
		p.Title, p.Description, p.MOQ, p.BulkPrice, p.Stock, p.CategoryID, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

// SetProductVerification flips the admin-owned verification flag
func (s *Store) SetProductVerification(ctx context.Context, productID int64, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_verified = $1, updated_at = NOW() WHERE id = $2",
		verified, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}
