package service

import (
	"context"
	"testing"
	"time"

	"groupbuy-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyUser(t *testing.T) {
	ms := newMemStore()
	auth := newTestAuthService(ms)
	svc := NewAdminService(ms)

	user, err := auth.SignUp(context.Background(), &SignUpRequest{
		Email:    "supplier@example.com",
		Password: "hunter2hunter2",
		FullName: "Supplier",
		Role:     models.RoleSupplier,
	})
	require.NoError(t, err)
	require.False(t, user.IsVerified)

	require.NoError(t, svc.VerifyUser(context.Background(), user.ID, true))

	got, err := ms.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	err = svc.VerifyUser(context.Background(), 999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsersUnknownRole(t *testing.T) {
	ms := newMemStore()
	svc := NewAdminService(ms)

	_, err := svc.ListUsers(context.Background(), models.Role("superuser"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDashboardMetrics(t *testing.T) {
	ms := newMemStore()
	auth := newTestAuthService(ms)
	admin := NewAdminService(ms)

	_, err := auth.SignUp(context.Background(), &SignUpRequest{
		Email:    "supplier@example.com",
		Password: "hunter2hunter2",
		FullName: "Supplier",
		Role:     models.RoleSupplier,
	})
	require.NoError(t, err)

	product := seedVerifiedProduct(ms, 1)
	ms.addDeal(&models.Deal{
		ProductID:  product.ID,
		SupplierID: 1,
		MOQ:        10,
		EndTime:    time.Now().Add(time.Hour),
		Status:     models.DealStatusActive,
		IsApproved: false,
	})

	m, err := admin.GetDashboardMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Users)
	assert.Equal(t, int64(1), m.Products)
	assert.Equal(t, int64(1), m.Deals)
	assert.Equal(t, int64(0), m.Orders)
	assert.Equal(t, int64(1), m.PendingDeals)
	assert.Equal(t, int64(1), m.UnverifiedSuppliers)
}
