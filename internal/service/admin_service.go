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

// AdminStore is the slice of the store the admin service needs
type AdminStore interface {
	GetUsers(ctx context.Context, role models.Role) ([]models.User, error)
	SetUserVerification(ctx context.Context, userID int64, verified bool) error
	CountByTable(ctx context.Context, table string) (int64, error)
	CountPendingDeals(ctx context.Context) (int64, error)
	CountUnverifiedUsers(ctx context.Context, role models.Role) (int64, error)
}

// AdminService backs the admin dashboard and user verification
type AdminService struct {
	store  AdminStore
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ListUsers lists users, optionally by role
func (s *AdminService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}
	return s.store.GetUsers(ctx, role)
}

// VerifyUser flips a user's verification flag
func (s *AdminService) VerifyUser(ctx context.Context, userID int64, verified bool) error {
	if err := s.store.SetUserVerification(ctx, userID, verified); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return err
	}
	s.logger.Info("User verification updated",
		zap.Int64("user_id", userID),
		zap.Bool("verified", verified))
	return nil
}

// DashboardMetrics is the admin overview payload
type DashboardMetrics struct {
	Users               int64 `json:"users"`
	Products            int64 `json:"products"`
	Deals               int64 `json:"deals"`
	Orders              int64 `json:"orders"`
	PendingDeals        int64 `json:"pending_deals"`
	UnverifiedSuppliers int64 `json:"unverified_suppliers"`
}

// GetDashboardMetrics aggregates entity counts for the admin dashboard
func (s *AdminService) GetDashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	m := &DashboardMetrics{}

	counts := []struct {
		table string
		dest  *int64
	}{
		{"users", &m.Users},
		{"products", &m.Products},
		{"deals", &m.Deals},
		{"orders", &m.Orders},
	}
	for _, c := range counts {
		n, err := s.store.CountByTable(ctx, c.table)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
		*c.dest = n
	}

	pending, err := s.store.CountPendingDeals(ctx)
	if err != nil {
		return nil, err
	}
	m.PendingDeals = pending

	unverified, err := s.store.CountUnverifiedUsers(ctx, models.RoleSupplier)
	if err != nil {
		return nil, err
	}
	m.UnverifiedSuppliers = unverified

	return m, nil
}
