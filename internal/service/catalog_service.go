package service

import (
	"context"
	"errors"
	"fmt"

	"groupbuy-service/internal/models"
	"groupbuy-service/internal/store"
	"groupbuy-service/internal/util"

	"go.uber.org/zap"
)

// CatalogStore is the slice of the store the catalog service needs
type CatalogStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	SetProductVerification(ctx context.Context, productID int64, verified bool) error
	DeleteProduct(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, cat *models.Category) error
	GetCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, cat *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// CatalogService owns supplier-scoped product CRUD and admin-owned
// category reference data.
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ProductInput carries supplier-editable product fields
type ProductInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	MOQ         int    `json:"moq" binding:"required,min=1"`
	BulkPrice   int64  `json:"bulk_price" binding:"min=0"`
	Stock       int    `json:"stock" binding:"min=0"`
	CategoryID  int64  `json:"category_id" binding:"required"`
}

func (in *ProductInput) validate() error {
	if in.Title == "" {
		return fmt.Errorf("title required: %w", ErrValidation)
	}
	if in.MOQ <= 0 {
		return fmt.Errorf("moq must be positive: %w", ErrValidation)
	}
	if in.BulkPrice < 0 {
		return fmt.Errorf("bulk price must be non-negative: %w", ErrValidation)
	}
	if in.Stock < 0 {
		return fmt.Errorf("stock must be non-negative: %w", ErrValidation)
	}
	return nil
}

// CreateProduct creates an unverified product owned by the supplier
func (s *CatalogService) CreateProduct(ctx context.Context, supplierID int64, in *ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		SupplierID:  supplierID,
		Title:       in.Title,
		Description: in.Description,
		MOQ:         in.MOQ,
		BulkPrice:   in.BulkPrice,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		IsVerified:  false,
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("supplier_id", supplierID))

	return product, nil
}

// UpdateProduct updates a product's supplier-editable fields. Only the
// owning supplier may mutate; the verification flag is untouched.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID, supplierID int64, in *ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SupplierID != supplierID {
		return nil, fmt.Errorf("product %d not owned by supplier %d: %w", productID, supplierID, ErrForbidden)
	}

	product.Title = in.Title
	product.Description = in.Description
	product.MOQ = in.MOQ
	product.BulkPrice = in.BulkPrice
	product.Stock = in.Stock
	product.CategoryID = in.CategoryID

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product owned by the supplier
func (s *CatalogService) DeleteProduct(ctx context.Context, productID, supplierID int64) error {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.SupplierID != supplierID {
		return fmt.Errorf("product %d not owned by supplier %d: %w", productID, supplierID, ErrForbidden)
	}
	return s.store.DeleteProduct(ctx, productID)
}

// VerifyProduct sets the admin-owned verification flag
func (s *CatalogService) VerifyProduct(ctx context.Context, productID int64, verified bool) error {
	if err := s.store.SetProductVerification(ctx, productID, verified); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return err
	}
	return nil
}

// ListProducts lists products visible to the requesting role. Vendors only
// see verified products; suppliers and admins see everything the filter
// matches.
func (s *CatalogService) ListProducts(ctx context.Context, role models.Role, filter store.ProductFilter) ([]models.Product, error) {
	if role == models.RoleVendor {
		filter.VerifiedOnly = true
	}
	return s.store.GetProducts(ctx, filter)
}

// GetProduct retrieves a single product
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	return s.getProduct(ctx, productID)
}

func (s *CatalogService) getProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

// CreateCategory creates admin-owned reference data
func (s *CatalogService) CreateCategory(ctx context.Context, cat *models.Category) error {
	if cat.Name == "" {
		return fmt.Errorf("category name required: %w", ErrValidation)
	}
	return s.store.CreateCategory(ctx, cat)
}

// ListCategories lists all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.GetCategories(ctx)
}

// UpdateCategory updates a category
func (s *CatalogService) UpdateCategory(ctx context.Context, cat *models.Category) error {
	if cat.Name == "" {
		return fmt.Errorf("category name required: %w", ErrValidation)
	}
	if err := s.store.UpdateCategory(ctx, cat); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("category %d: %w", cat.ID, ErrNotFound)
		}
		return err
	}
	return nil
}

// DeleteCategory removes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}
