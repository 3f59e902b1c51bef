package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groupbuy-service/internal/broker"
	"groupbuy-service/internal/models"
	"groupbuy-service/internal/redisclient"
	"groupbuy-service/internal/store"
	"groupbuy-service/internal/util"

	"go.uber.org/zap"
)

// OrderStore is the slice of the store the order ledger needs. JoinDealTx
// must apply the order insert and both counter increments as one atomic
// unit; any implementation that read-modify-writes the counters outside a
// lock breaks the ledger's contract.
type OrderStore interface {
	GetDealByID(ctx context.Context, id int64) (*models.Deal, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	MarkDealExpired(ctx context.Context, dealID int64) error
	JoinDealTx(ctx context.Context, order *models.Order) (*models.Deal, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
}

// PaymentCollector runs the payment step before a join
type PaymentCollector interface {
	Collect(ctx context.Context, vendorID int64, amount int64) (string, error)
}

// OrderService is the order ledger: it owns the join protocol and the
// supplier-driven order status chain.
type OrderService struct {
	store      OrderStore
	payments   PaymentCollector
	redis      *redisclient.Client
	events     *broker.EventPublisher
	joinKeyTTL time.Duration
	logger     *zap.Logger
}

// NewOrderService creates a new order service. redis and events may be nil;
// both are best-effort side channels, never part of the join's correctness.
func NewOrderService(
	store OrderStore,
	payments PaymentCollector,
	redis *redisclient.Client,
	events *broker.EventPublisher,
	joinKeyTTL time.Duration,
) *OrderService {
	return &OrderService{
		store:      store,
		payments:   payments,
		redis:      redis,
		events:     events,
		joinKeyTTL: joinKeyTTL,
		logger:     util.GetLogger(),
	}
}

// JoinDealRequest represents a vendor joining a deal
type JoinDealRequest struct {
	DealID         int64  `json:"deal_id"`
	VendorID       int64  `json:"-"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	TotalAmount    int64  `json:"total_amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// JoinDealResponse carries the created order and the post-join deal snapshot
type JoinDealResponse struct {
	Order *models.Order `json:"order"`
	Deal  *models.Deal  `json:"deal"`
}

// JoinDeal commits a vendor's quantity to an active, approved deal.
//
// The total amount is recomputed from the product's current bulk price and
// never trusted from the caller; a caller-supplied amount that disagrees is
// rejected outright. The order insert and counter increments commit as one
// transaction, so under concurrent joins the final counters always equal
// the sum of accepted quantities.
func (s *OrderService) JoinDeal(ctx context.Context, req *JoinDealRequest) (*JoinDealResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.JoinDeal")
	defer span.End()

	if req.Quantity < 1 {
		util.DealJoinsFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			s.logger.Info("Duplicate join request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			deal, err := s.store.GetDealByID(ctx, existing.DealID)
			if err != nil {
				return nil, err
			}
			return &JoinDealResponse{Order: existing, Deal: deal}, nil
		}
	}

	deal, err := s.precheckDeal(ctx, req.DealID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, deal.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal product: %w", err)
	}

	totalAmount := product.BulkPrice * int64(req.Quantity)
	if req.TotalAmount != 0 && req.TotalAmount != totalAmount {
		util.DealJoinsFailedTotal.WithLabelValues("amount_mismatch").Inc()
		return nil, fmt.Errorf("total amount %d does not match %d x %d: %w",
			req.TotalAmount, req.Quantity, product.BulkPrice, ErrValidation)
	}

	if _, err := s.payments.Collect(ctx, req.VendorID, totalAmount); err != nil {
		util.DealJoinsFailedTotal.WithLabelValues("payment").Inc()
		return nil, err
	}

	order := &models.Order{
		DealID:         req.DealID,
		VendorID:       req.VendorID,
		Quantity:       req.Quantity,
		UnitPrice:      product.BulkPrice,
		TotalAmount:    totalAmount,
		PaymentMethod:  "UPI",
		IdempotencyKey: req.IdempotencyKey,
		Status:         models.OrderStatusConfirmed,
	}

	start := time.Now()
	updatedDeal, err := s.store.JoinDealTx(ctx, order)
	util.DealJoinLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.classifyJoinErr(err)
	}

	util.DealJoinsTotal.Inc()
	completed := updatedDeal.Status == models.DealStatusCompleted
	s.logger.Info("Deal joined",
		zap.Int64("deal_id", updatedDeal.ID),
		zap.Int64("order_id", order.ID),
		zap.Int("quantity", req.Quantity),
		zap.Int("current_count", updatedDeal.CurrentCount),
		zap.Bool("completed", completed))

	s.afterJoin(ctx, order, updatedDeal, completed)

	return &JoinDealResponse{Order: order, Deal: updatedDeal}, nil
}

// precheckDeal fails fast before the payment step. The join transaction
// revalidates all of this under the row lock; the precheck only keeps a
// doomed join from charging the vendor.
func (s *OrderService) precheckDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	deal, err := s.store.GetDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.DealJoinsFailedTotal.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
		}
		return nil, err
	}

	if !deal.IsApproved {
		util.DealJoinsFailedTotal.WithLabelValues("not_approved").Inc()
		return nil, fmt.Errorf("deal %d is not approved: %w", dealID, ErrState)
	}
	if !deal.EndTime.After(time.Now()) {
		if err := s.store.MarkDealExpired(ctx, dealID); err != nil {
			s.logger.Error("Failed to persist deal expiry", zap.Int64("deal_id", dealID), zap.Error(err))
		}
		util.DealJoinsFailedTotal.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("deal %d has ended: %w", dealID, ErrState)
	}
	if deal.Status != models.DealStatusActive {
		util.DealJoinsFailedTotal.WithLabelValues("not_active").Inc()
		return nil, fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, ErrState)
	}

	return deal, nil
}

func (s *OrderService) classifyJoinErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		util.DealJoinsFailedTotal.WithLabelValues("not_found").Inc()
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	case errors.Is(err, store.ErrDealNotApproved),
		errors.Is(err, store.ErrDealNotActive),
		errors.Is(err, store.ErrDealEnded):
		util.DealJoinsFailedTotal.WithLabelValues("state").Inc()
		return fmt.Errorf("%w: %s", ErrState, err)
	default:
		util.DealJoinsFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("join failed: %w", err)
	}
}

// afterJoin fans the committed join out to the progress mirror and the
// event stream. Failures here are logged, never surfaced: the join already
// committed and the mirror is advisory.
func (s *OrderService) afterJoin(ctx context.Context, order *models.Order, deal *models.Deal, completed bool) {
	if s.redis != nil {
		if _, err := s.redis.IncrementProgress(ctx, deal.ID, order.Quantity); err != nil {
			s.logger.Warn("Failed to mirror progress to Redis",
				zap.Int64("deal_id", deal.ID),
				zap.Error(err))
		}
		if order.IdempotencyKey != "" {
			if err := s.redis.SetJoinKey(ctx, order.IdempotencyKey, order.ID, s.joinKeyTTL); err != nil {
				s.logger.Warn("Failed to record join key", zap.Error(err))
			}
		}
	}

	if s.events == nil {
		return
	}

	joined := &models.DealJoinedEvent{
		BaseEvent:       newBaseEvent(models.EventTypeDealJoined),
		DealID:          deal.ID,
		OrderID:         order.ID,
		VendorID:        order.VendorID,
		Quantity:        order.Quantity,
		TotalAmount:     order.TotalAmount,
		NewCount:        deal.CurrentCount,
		NewParticipants: deal.ParticipantsCount,
		Completed:       completed,
	}
	if err := s.events.PublishDealJoined(ctx, joined); err != nil {
		s.logger.Error("Failed to publish DealJoined event", zap.Error(err))
	}

	if completed {
		util.DealsCompletedTotal.Inc()
		event := &models.DealCompletedEvent{
			BaseEvent:    newBaseEvent(models.EventTypeDealCompleted),
			DealID:       deal.ID,
			CurrentCount: deal.CurrentCount,
			MOQ:          deal.MOQ,
		}
		if err := s.events.PublishDealCompleted(ctx, event); err != nil {
			s.logger.Error("Failed to publish DealCompleted event", zap.Error(err))
		}
	}
}

// ListOrdersFilter scopes an order listing to a requester
type ListOrdersFilter struct {
	Role        models.Role
	RequesterID int64
	DealID      int64
}

// ListOrders returns orders visible to the requester: vendors see their
// own, suppliers see orders against their deals, admins see everything.
func (s *OrderService) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]models.Order, error) {
	sf := store.OrderFilter{DealID: filter.DealID}

	switch filter.Role {
	case models.RoleVendor:
		sf.VendorID = filter.RequesterID
	case models.RoleSupplier:
		sf.SupplierID = filter.RequesterID
	case models.RoleAdmin:
		// unrestricted
	default:
		return nil, fmt.Errorf("role %q: %w", filter.Role, ErrForbidden)
	}

	return s.store.GetOrders(ctx, sf)
}

// orderStatusNext is the forward-only chain. Delivered has no successor.
var orderStatusNext = map[string]string{
	models.OrderStatusPending:   models.OrderStatusConfirmed,
	models.OrderStatusConfirmed: models.OrderStatusShipped,
	models.OrderStatusShipped:   models.OrderStatusDelivered,
}

// AdvanceOrderStatus moves an order one step forward. Only the supplier
// owning the parent deal may advance; delivered orders are immutable.
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, orderID, requesterID int64, newStatus string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}

	deal, err := s.store.GetDealByID(ctx, order.DealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent deal: %w", err)
	}
	if deal.SupplierID != requesterID {
		return nil, fmt.Errorf("order %d belongs to supplier %d's deal: %w",
			orderID, deal.SupplierID, ErrForbidden)
	}

	next, ok := orderStatusNext[order.Status]
	if !ok {
		return nil, fmt.Errorf("order %d is %s and immutable: %w", orderID, order.Status, ErrState)
	}
	if newStatus != next {
		return nil, fmt.Errorf("order %d must advance %s -> %s, not %s: %w",
			orderID, order.Status, next, newStatus, ErrState)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	oldStatus := order.Status
	order.Status = newStatus
	util.OrdersAdvancedTotal.WithLabelValues(newStatus).Inc()

	s.logger.Info("Order advanced",
		zap.Int64("order_id", orderID),
		zap.String("from", oldStatus),
		zap.String("to", newStatus))

	if s.events != nil {
		event := &models.OrderAdvancedEvent{
			BaseEvent: newBaseEvent(models.EventTypeOrderAdvanced),
			OrderID:   orderID,
			DealID:    order.DealID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		}
		if err := s.events.PublishOrderAdvanced(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderAdvanced event", zap.Error(err))
		}
	}

	return order, nil
}

// GetOrder retrieves a single order, visible to its vendor, the supplier of
// its deal, and admins.
func (s *OrderService) GetOrder(ctx context.Context, orderID, requesterID int64, role models.Role) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
		return order, nil
	case models.RoleVendor:
		if order.VendorID != requesterID {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrForbidden)
		}
		return order, nil
	case models.RoleSupplier:
		deal, err := s.store.GetDealByID(ctx, order.DealID)
		if err != nil {
			return nil, err
		}
		if deal.SupplierID != requesterID {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrForbidden)
		}
		return order, nil
	}
	return nil, fmt.Errorf("role %q: %w", role, ErrForbidden)
}

// GetProgress serves a deal's progress counters, preferring the Redis
// mirror and falling back to the store.
func (s *OrderService) GetProgress(ctx context.Context, dealID int64) (*redisclient.Progress, error) {
	if s.redis != nil {
		if p, err := s.redis.GetProgress(ctx, dealID); err == nil {
			return p, nil
		}
	}

	deal, err := s.store.GetDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
		}
		return nil, err
	}

	return &redisclient.Progress{
		DealID:            deal.ID,
		CurrentCount:      deal.CurrentCount,
		ParticipantsCount: deal.ParticipantsCount,
		MOQ:               deal.MOQ,
	}, nil
}
