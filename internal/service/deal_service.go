package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groupbuy-service/internal/broker"
	"groupbuy-service/internal/models"
	"groupbuy-service/internal/store"
	"groupbuy-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DealStore is the slice of the store the deal engine needs
type DealStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateDeal(ctx context.Context, deal *models.Deal) error
	GetDealByID(ctx context.Context, id int64) (*models.Deal, error)
	GetDeals(ctx context.Context, filter store.DealFilter) ([]models.Deal, error)
	ApproveDeal(ctx context.Context, dealID int64) error
	RejectDeal(ctx context.Context, dealID int64) error
	SetDealStatus(ctx context.Context, dealID int64, status string) error
	MarkDealExpired(ctx context.Context, dealID int64) error
}

// DealService is the deal engine: it owns the deal state machine, approval
// gating and role-scoped visibility.
type DealService struct {
	store  DealStore
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewDealService creates a new deal service
func NewDealService(store DealStore, events *broker.EventPublisher) *DealService {
	return &DealService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// StartDealRequest represents a supplier starting a deal
type StartDealRequest struct {
	ProductID int64     `json:"product_id" binding:"required"`
	MOQ       int       `json:"moq" binding:"required,min=1"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// StartDeal creates a deal against a verified product owned by the supplier.
// The deal starts active but unapproved, so it accepts no joins and is
// invisible to vendors until an admin approves it.
func (s *DealService) StartDeal(ctx context.Context, supplierID int64, req *StartDealRequest) (*models.Deal, error) {
	ctx, span := util.StartSpan(ctx, "DealService.StartDeal")
	defer span.End()

	if req.MOQ <= 0 {
		return nil, fmt.Errorf("moq must be positive: %w", ErrValidation)
	}
	if !req.EndTime.After(time.Now()) {
		return nil, fmt.Errorf("end time must be in the future: %w", ErrValidation)
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("product %d: %w", req.ProductID, ErrNotFound)
		}
		return nil, err
	}
	if product.SupplierID != supplierID {
		return nil, fmt.Errorf("product %d not owned by supplier %d: %w", req.ProductID, supplierID, ErrForbidden)
	}
	if !product.IsVerified {
		return nil, fmt.Errorf("product %d is not verified: %w", req.ProductID, ErrState)
	}

	deal := &models.Deal{
		ProductID:         product.ID,
		SupplierID:        supplierID,
		MOQ:               req.MOQ,
		EndTime:           req.EndTime,
		Status:            models.DealStatusActive,
		IsApproved:        false,
		CurrentCount:      0,
		ParticipantsCount: 0,
	}

	if err := s.store.CreateDeal(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	util.DealsCreatedTotal.Inc()
	s.logger.Info("Deal started",
		zap.Int64("deal_id", deal.ID),
		zap.Int64("supplier_id", supplierID),
		zap.Int("moq", deal.MOQ))

	if s.events != nil {
		event := &models.DealCreatedEvent{
			BaseEvent:  newBaseEvent(models.EventTypeDealCreated),
			DealID:     deal.ID,
			ProductID:  deal.ProductID,
			SupplierID: deal.SupplierID,
			MOQ:        deal.MOQ,
			EndTime:    deal.EndTime,
		}
		if err := s.events.PublishDealCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish DealCreated event", zap.Error(err))
		}
	}

	return deal, nil
}

// ApproveDeal is admin-only: it opens an active deal to vendor joins.
// Rejected and completed deals cannot be approved.
func (s *DealService) ApproveDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	deal = s.resolveExpiry(ctx, deal)
	if deal.Terminal() {
		return nil, fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, ErrState)
	}

	if err := s.store.ApproveDeal(ctx, dealID); err != nil {
		return nil, fmt.Errorf("failed to approve deal: %w", err)
	}
	deal.IsApproved = true

	util.DealsApprovedTotal.Inc()
	s.logger.Info("Deal approved", zap.Int64("deal_id", dealID))

	if s.events != nil {
		event := &models.DealApprovedEvent{
			BaseEvent: newBaseEvent(models.EventTypeDealApproved),
			DealID:    dealID,
		}
		if err := s.events.PublishDealApproved(ctx, event); err != nil {
			s.logger.Error("Failed to publish DealApproved event", zap.Error(err))
		}
	}

	return deal, nil
}

// RejectDeal is admin-only and terminal. A rejected deal never accepts
// joins again and cannot be un-rejected.
func (s *DealService) RejectDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	deal = s.resolveExpiry(ctx, deal)
	if deal.Terminal() {
		return nil, fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, ErrState)
	}

	if err := s.store.RejectDeal(ctx, dealID); err != nil {
		return nil, fmt.Errorf("failed to reject deal: %w", err)
	}
	deal.IsApproved = false
	deal.Status = models.DealStatusRejected

	util.DealsRejectedTotal.Inc()
	s.logger.Info("Deal rejected", zap.Int64("deal_id", dealID))

	if s.events != nil {
		event := &models.DealRejectedEvent{
			BaseEvent: newBaseEvent(models.EventTypeDealRejected),
			DealID:    dealID,
		}
		if err := s.events.PublishDealRejected(ctx, event); err != nil {
			s.logger.Error("Failed to publish DealRejected event", zap.Error(err))
		}
	}

	return deal, nil
}

// ToggleDealPause flips a deal between active and paused. Only the owning
// supplier may toggle; terminal deals refuse.
func (s *DealService) ToggleDealPause(ctx context.Context, dealID, requesterID int64) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.SupplierID != requesterID {
		return nil, fmt.Errorf("deal %d not owned by supplier %d: %w", dealID, requesterID, ErrForbidden)
	}

	deal = s.resolveExpiry(ctx, deal)

	var next string
	switch deal.Status {
	case models.DealStatusActive:
		next = models.DealStatusPaused
	case models.DealStatusPaused:
		next = models.DealStatusActive
	default:
		return nil, fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, ErrState)
	}

	if err := s.store.SetDealStatus(ctx, dealID, next); err != nil {
		return nil, fmt.Errorf("failed to set deal status: %w", err)
	}
	deal.Status = next

	s.logger.Info("Deal pause toggled",
		zap.Int64("deal_id", dealID),
		zap.String("status", next))

	return deal, nil
}

// ListDealsFilter scopes a deal listing to a requester
type ListDealsFilter struct {
	Status      string
	SupplierID  int64
	Role        models.Role
	RequesterID int64
}

// ListDeals returns deals visible to the requester. Unapproved deals are
// visible only to admins and the owning supplier; vendors never see them.
// Expiry is evaluated at read time since nothing runs in the background.
func (s *DealService) ListDeals(ctx context.Context, filter ListDealsFilter) ([]models.Deal, error) {
	sf := store.DealFilter{
		Status:     filter.Status,
		SupplierID: filter.SupplierID,
	}

	switch filter.Role {
	case models.RoleAdmin:
		// sees everything
	case models.RoleSupplier:
		if filter.SupplierID != filter.RequesterID {
			sf.ApprovedOnly = true
		}
	default:
		sf.ApprovedOnly = true
	}

	deals, err := s.store.GetDeals(ctx, sf)
	if err != nil {
		return nil, err
	}

	for i := range deals {
		deals[i] = *s.resolveExpiry(ctx, &deals[i])
	}

	return deals, nil
}

// GetDeal retrieves a single deal under the same visibility rule as ListDeals
func (s *DealService) GetDeal(ctx context.Context, dealID, requesterID int64, role models.Role) (*models.Deal, error) {
	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if !deal.IsApproved && role != models.RoleAdmin && deal.SupplierID != requesterID {
		return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
	}

	return s.resolveExpiry(ctx, deal), nil
}

func (s *DealService) getDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	deal, err := s.store.GetDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("deal %d: %w", dealID, ErrNotFound)
		}
		return nil, err
	}
	return deal, nil
}

// resolveExpiry reports a deal past its end time as expired and lazily
// persists the transition. Terminal states are left alone.
func (s *DealService) resolveExpiry(ctx context.Context, deal *models.Deal) *models.Deal {
	if deal.Terminal() {
		return deal
	}
	if deal.EndTime.After(time.Now()) {
		return deal
	}

	if err := s.store.MarkDealExpired(ctx, deal.ID); err != nil {
		s.logger.Error("Failed to persist deal expiry",
			zap.Int64("deal_id", deal.ID),
			zap.Error(err))
	} else {
		util.DealsExpiredTotal.Inc()
	}

	deal.Status = models.DealStatusExpired
	return deal
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
