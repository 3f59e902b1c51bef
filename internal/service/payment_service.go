package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"groupbuy-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService simulates the UPI collection step that precedes a join.
// No real provider is wired; the delay and success rate are configurable so
// the join path can be exercised end to end.
type PaymentService struct {
	logger      *zap.Logger
	delay       time.Duration
	successRate float64
}

// NewPaymentService creates a new payment service
func NewPaymentService(delay time.Duration, successRate float64) *PaymentService {
	return &PaymentService{
		logger:      util.GetLogger(),
		delay:       delay,
		successRate: successRate,
	}
}

// Collect runs the simulated UPI flow and returns a provider transaction ID.
// A declined payment returns ErrPaymentDeclined; the caller must not create
// an order or touch any counter in that case.
func (ps *PaymentService) Collect(ctx context.Context, vendorID int64, amount int64) (string, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Collect")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	ps.logger.Info("Collecting payment",
		zap.Int64("vendor_id", vendorID),
		zap.Int64("amount", amount))

	select {
	case <-time.After(ps.delay):
	case <-ctx.Done():
		util.PaymentFailedTotal.Inc()
		return "", ctx.Err()
	}

	if rand.Float64() >= ps.successRate {
		util.PaymentFailedTotal.Inc()
		ps.logger.Warn("Payment declined", zap.Int64("vendor_id", vendorID))
		return "", fmt.Errorf("UPI collection failed: %w", ErrPaymentDeclined)
	}

	txID := fmt.Sprintf("UPI-%s", uuid.New().String()[:8])
	util.PaymentSuccessTotal.Inc()

	ps.logger.Info("Payment collected",
		zap.Int64("vendor_id", vendorID),
		zap.String("tx_id", txID))

	return txID, nil
}
