package worker

import (
	"context"
	"log"

	"groupbuy-service/internal/broker"
	"groupbuy-service/internal/models"
	"groupbuy-service/internal/redisclient"
	"groupbuy-service/internal/store"
	"groupbuy-service/internal/util"

	"go.uber.org/zap"
)

// ProgressStore is the slice of the store the worker needs
type ProgressStore interface {
	GetDeals(ctx context.Context, filter store.DealFilter) ([]models.Deal, error)
	GetDealByID(ctx context.Context, id int64) (*models.Deal, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// ProgressWorker keeps the Redis progress mirror in step with committed
// joins by consuming the deal event stream. Correctness never depends on
// it; a stale mirror only degrades progress reads until the next sync.
type ProgressWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        ProgressStore
	redis        *redisclient.Client
	logger       *zap.Logger
}

// NewProgressWorker creates a new progress worker
func NewProgressWorker(consumer *broker.Consumer, store ProgressStore, redis *redisclient.Client) *ProgressWorker {
	w := &ProgressWorker{
		consumer: consumer,
		store:    store,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnDealCreated(w.handleDealCreated)
	eventHandler.OnDealApproved(w.handleDealApproved)
	eventHandler.OnDealJoined(w.handleDealJoined)
	eventHandler.OnDealCompleted(w.handleDealCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ProgressWorker) Start(ctx context.Context) error {
	log.Println("Starting progress worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ProgressWorker) Stop() error {
	log.Println("Stopping progress worker...")
	return w.consumer.Close()
}

// SyncFromStore seeds the mirror from the database. Run at startup and
// whenever the mirror is suspected stale.
func (w *ProgressWorker) SyncFromStore(ctx context.Context) error {
	deals, err := w.store.GetDeals(ctx, store.DealFilter{})
	if err != nil {
		return err
	}

	synced := 0
	for _, deal := range deals {
		if deal.Terminal() {
			continue
		}
		if err := w.redis.InitProgress(ctx, deal.ID, deal.CurrentCount, deal.ParticipantsCount, deal.MOQ); err != nil {
			w.logger.Error("Failed to seed progress mirror",
				zap.Int64("deal_id", deal.ID),
				zap.Error(err))
			continue
		}
		synced++
	}

	w.logger.Info("Progress mirror synced", zap.Int("deals", synced))
	return nil
}

func (w *ProgressWorker) handleDealCreated(ctx context.Context, event *models.DealCreatedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil || processed {
		return err
	}

	if err := w.redis.InitProgress(ctx, event.DealID, 0, 0, event.MOQ); err != nil {
		util.ProgressCacheSyncTotal.WithLabelValues("error").Inc()
		return err
	}

	util.ProgressCacheSyncTotal.WithLabelValues("seeded").Inc()
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *ProgressWorker) handleDealApproved(ctx context.Context, event *models.DealApprovedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil || processed {
		return err
	}

	// Re-seed from the row rather than trusting the mirror exists
	deal, err := w.store.GetDealByID(ctx, event.DealID)
	if err != nil {
		return err
	}
	if err := w.redis.InitProgress(ctx, deal.ID, deal.CurrentCount, deal.ParticipantsCount, deal.MOQ); err != nil {
		util.ProgressCacheSyncTotal.WithLabelValues("error").Inc()
		return err
	}

	util.ProgressCacheSyncTotal.WithLabelValues("seeded").Inc()
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

// handleDealJoined reconciles the mirror against the event's post-commit
// counters. The publisher already applied the increment on the hot path;
// this consumer covers instances that missed it.
func (w *ProgressWorker) handleDealJoined(ctx context.Context, event *models.DealJoinedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil || processed {
		return err
	}

	if err := w.redis.SetProgressCounts(ctx, event.DealID, event.NewCount, event.NewParticipants); err != nil {
		util.ProgressCacheSyncTotal.WithLabelValues("error").Inc()
		return err
	}

	util.ProgressCacheSyncTotal.WithLabelValues("applied").Inc()
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *ProgressWorker) handleDealCompleted(ctx context.Context, event *models.DealCompletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil || processed {
		return err
	}

	w.logger.Info("Deal reached its MOQ",
		zap.Int64("deal_id", event.DealID),
		zap.Int("current_count", event.CurrentCount),
		zap.Int("moq", event.MOQ))

	if err := w.redis.DropProgress(ctx, event.DealID); err != nil {
		w.logger.Warn("Failed to drop progress mirror", zap.Int64("deal_id", event.DealID), zap.Error(err))
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
