package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"groupbuy-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService(ms *memStore) *OrderService {
	return NewOrderService(ms, okPayments{}, nil, nil, time.Minute)
}

// seedDeal sets up a supplier, a verified product and an approved active
// deal with the given MOQ, returning the deal.
func seedDeal(ms *memStore, moq int, bulkPrice int64) *models.Deal {
	product := ms.addProduct(&models.Product{
		SupplierID: 1,
		Title:      "Basmati Rice 25kg",
		BulkPrice:  bulkPrice,
		IsVerified: true,
	})
	return ms.addDeal(&models.Deal{
		ProductID:  product.ID,
		SupplierID: 1,
		MOQ:        moq,
		EndTime:    time.Now().Add(24 * time.Hour),
		Status:     models.DealStatusActive,
		IsApproved: true,
	})
}

func TestJoinDealConcurrent(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 1000, 5000)
	svc := newTestOrderService(ms)

	const joiners = 100
	const qty = 3

	var wg sync.WaitGroup
	errs := make(chan error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(vendorID int64) {
			defer wg.Done()
			_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
				DealID:   deal.ID,
				VendorID: vendorID,
				Quantity: qty,
			})
			errs <- err
		}(int64(100 + i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := ms.GetDealByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, joiners*qty, got.CurrentCount)
	assert.Equal(t, joiners, got.ParticipantsCount)

	orders, err := ms.GetOrders(context.Background(), orderFilterForDeal(deal.ID))
	require.NoError(t, err)
	assert.Len(t, orders, joiners)
}

func TestJoinDealCompletesAtMOQ(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	resp, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusActive, resp.Deal.Status)
	assert.Equal(t, 60, resp.Deal.CurrentCount)

	resp, err = svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 11,
		Quantity: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, resp.Deal.Status)
	assert.Equal(t, 110, resp.Deal.CurrentCount)
	assert.Equal(t, 2, resp.Deal.ParticipantsCount)

	// completed is terminal: the next join must refuse
	_, err = svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 12,
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrState)
}

func TestJoinDealUnapproved(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	ms.deals[deal.ID].IsApproved = false
	svc := newTestOrderService(ms)

	_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 5,
	})
	require.ErrorIs(t, err, ErrState)

	// no order row and untouched counters
	got, err := ms.GetDealByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentCount)
	assert.Equal(t, 0, got.ParticipantsCount)
	orders, _ := ms.GetOrders(context.Background(), orderFilterForDeal(deal.ID))
	assert.Empty(t, orders)
}

func TestJoinDealStateGates(t *testing.T) {
	cases := []struct {
		name   string
		status string
	}{
		{"paused", models.DealStatusPaused},
		{"completed", models.DealStatusCompleted},
		{"expired", models.DealStatusExpired},
		{"rejected", models.DealStatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ms := newMemStore()
			deal := seedDeal(ms, 100, 5000)
			ms.deals[deal.ID].Status = tc.status
			svc := newTestOrderService(ms)

			_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
				DealID:   deal.ID,
				VendorID: 10,
				Quantity: 1,
			})
			assert.ErrorIs(t, err, ErrState)
		})
	}
}

func TestJoinDealEnded(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	ms.deals[deal.ID].EndTime = time.Now().Add(-time.Minute)
	svc := newTestOrderService(ms)

	_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 1,
	})
	require.ErrorIs(t, err, ErrState)

	// expiry is persisted on the read path
	got, err := ms.GetDealByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusExpired, got.Status)
}

func TestJoinDealAmountMismatch(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:      deal.ID,
		VendorID:    10,
		Quantity:    4,
		TotalAmount: 19999, // 4 x 5000 = 20000
	})
	assert.ErrorIs(t, err, ErrValidation)

	// server-computed amount wins when the caller stays silent
	resp, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), resp.Order.TotalAmount)
	assert.Equal(t, int64(5000), resp.Order.UnitPrice)
}

func TestJoinDealPriceSnapshot(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	resp, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 2,
	})
	require.NoError(t, err)

	// supplier raises the bulk price after the join
	product, err := ms.GetProductByID(context.Background(), deal.ProductID)
	require.NoError(t, err)
	product.BulkPrice = 9000
	require.NoError(t, ms.UpdateProduct(context.Background(), product))

	got, err := ms.GetOrderByID(context.Background(), resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.UnitPrice)
	assert.Equal(t, int64(10000), got.TotalAmount)

	// a new join pays the new price
	resp2, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 11,
		Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9000), resp2.Order.UnitPrice)
	assert.Equal(t, int64(18000), resp2.Order.TotalAmount)
}

func TestJoinDealPaymentDeclined(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := NewOrderService(ms, declinedPayments{}, nil, nil, time.Minute)

	_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 3,
	})
	require.ErrorIs(t, err, ErrPaymentDeclined)

	got, err := ms.GetDealByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentCount)
	orders, _ := ms.GetOrders(context.Background(), orderFilterForDeal(deal.ID))
	assert.Empty(t, orders)
}

func TestJoinDealIdempotency(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	req := &JoinDealRequest{
		DealID:         deal.ID,
		VendorID:       10,
		Quantity:       5,
		IdempotencyKey: "join-abc-123",
	}

	first, err := svc.JoinDeal(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.JoinDeal(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	got, err := ms.GetDealByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentCount)
	assert.Equal(t, 1, got.ParticipantsCount)
}

func TestJoinDealInvalidQuantity(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	for _, qty := range []int{0, -3} {
		_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
			DealID:   deal.ID,
			VendorID: 10,
			Quantity: qty,
		})
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestJoinDealNotFound(t *testing.T) {
	ms := newMemStore()
	svc := newTestOrderService(ms)

	_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   999,
		VendorID: 10,
		Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceOrderStatus(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	resp, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 2,
	})
	require.NoError(t, err)
	orderID := resp.Order.ID

	// not the deal's supplier
	_, err = svc.AdvanceOrderStatus(context.Background(), orderID, 2, models.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrForbidden)

	// skipping a step
	_, err = svc.AdvanceOrderStatus(context.Background(), orderID, 1, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrState)

	// confirmed -> shipped -> delivered
	order, err := svc.AdvanceOrderStatus(context.Background(), orderID, 1, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.Status)

	order, err = svc.AdvanceOrderStatus(context.Background(), orderID, 1, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, order.Status)

	// delivered is immutable
	_, err = svc.AdvanceOrderStatus(context.Background(), orderID, 1, models.OrderStatusPending)
	assert.ErrorIs(t, err, ErrState)
}

func TestListOrdersScoping(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	for _, vendorID := range []int64{10, 11} {
		_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
			DealID:   deal.ID,
			VendorID: vendorID,
			Quantity: 1,
		})
		require.NoError(t, err)
	}

	vendorOrders, err := svc.ListOrders(context.Background(), ListOrdersFilter{
		Role:        models.RoleVendor,
		RequesterID: 10,
	})
	require.NoError(t, err)
	assert.Len(t, vendorOrders, 1)
	assert.Equal(t, int64(10), vendorOrders[0].VendorID)

	supplierOrders, err := svc.ListOrders(context.Background(), ListOrdersFilter{
		Role:        models.RoleSupplier,
		RequesterID: 1,
	})
	require.NoError(t, err)
	assert.Len(t, supplierOrders, 2)

	adminOrders, err := svc.ListOrders(context.Background(), ListOrdersFilter{
		Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Len(t, adminOrders, 2)
}

func TestGetOrderVisibility(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	resp, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 1,
	})
	require.NoError(t, err)
	orderID := resp.Order.ID

	_, err = svc.GetOrder(context.Background(), orderID, 10, models.RoleVendor)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), orderID, 11, models.RoleVendor)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrder(context.Background(), orderID, 1, models.RoleSupplier)
	assert.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), orderID, 2, models.RoleSupplier)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrder(context.Background(), orderID, 99, models.RoleAdmin)
	assert.NoError(t, err)
}

func TestGetProgressFallsBackToStore(t *testing.T) {
	ms := newMemStore()
	deal := seedDeal(ms, 100, 5000)
	svc := newTestOrderService(ms)

	_, err := svc.JoinDeal(context.Background(), &JoinDealRequest{
		DealID:   deal.ID,
		VendorID: 10,
		Quantity: 7,
	})
	require.NoError(t, err)

	progress, err := svc.GetProgress(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, progress.CurrentCount)
	assert.Equal(t, 1, progress.ParticipantsCount)
	assert.Equal(t, 100, progress.MOQ)
}
