package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"groupbuy-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// Events for the same deal share a key so consumers see them in order.
func dealKey(dealID int64) string {
	return fmt.Sprintf("deal-%d", dealID)
}

// PublishDealCreated publishes DealCreated event
func (ep *EventPublisher) PublishDealCreated(ctx context.Context, event *models.DealCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, dealKey(event.DealID), event)
}

// PublishDealApproved publishes DealApproved event
func (ep *EventPublisher) PublishDealApproved(ctx context.Context, event *models.DealApprovedEvent) error {
	return ep.producer.PublishEvent(ctx, dealKey(event.DealID), event)
}

// PublishDealRejected publishes DealRejected event
func (ep *EventPublisher) PublishDealRejected(ctx context.Context, event *models.DealRejectedEvent) error {
	return ep.producer.PublishEvent(ctx, dealKey(event.DealID), event)
}

// PublishDealJoined publishes DealJoined event
func (ep *EventPublisher) PublishDealJoined(ctx context.Context, event *models.DealJoinedEvent) error {
	return ep.producer.PublishEvent(ctx, dealKey(event.DealID), event)
}

// PublishDealCompleted publishes DealCompleted event
func (ep *EventPublisher) PublishDealCompleted(ctx context.Context, event *models.DealCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, dealKey(event.DealID), event)
}

// PublishOrderAdvanced publishes OrderAdvanced event
func (ep *EventPublisher) PublishOrderAdvanced(ctx context.Context, event *models.OrderAdvancedEvent) error {
	return ep.producer.PublishEvent(ctx, dealKey(event.DealID), event)
}

// EventHandler routes incoming deal events to registered handlers
type EventHandler struct {
	onDealCreated   func(context.Context, *models.DealCreatedEvent) error
	onDealApproved  func(context.Context, *models.DealApprovedEvent) error
	onDealJoined    func(context.Context, *models.DealJoinedEvent) error
	onDealCompleted func(context.Context, *models.DealCompletedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnDealCreated registers a handler for DealCreated events
func (eh *EventHandler) OnDealCreated(handler func(context.Context, *models.DealCreatedEvent) error) {
	eh.onDealCreated = handler
}

// OnDealApproved registers a handler for DealApproved events
func (eh *EventHandler) OnDealApproved(handler func(context.Context, *models.DealApprovedEvent) error) {
	eh.onDealApproved = handler
}

// OnDealJoined registers a handler for DealJoined events
func (eh *EventHandler) OnDealJoined(handler func(context.Context, *models.DealJoinedEvent) error) {
	eh.onDealJoined = handler
}

// OnDealCompleted registers a handler for DealCompleted events
func (eh *EventHandler) OnDealCompleted(handler func(context.Context, *models.DealCompletedEvent) error) {
	eh.onDealCompleted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeDealCreated:
		if eh.onDealCreated != nil {
			var event models.DealCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DealCreated event: %w", err)
			}
			return eh.onDealCreated(ctx, &event)
		}

	case models.EventTypeDealApproved:
		if eh.onDealApproved != nil {
			var event models.DealApprovedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DealApproved event: %w", err)
			}
			return eh.onDealApproved(ctx, &event)
		}

	case models.EventTypeDealJoined:
		if eh.onDealJoined != nil {
			var event models.DealJoinedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DealJoined event: %w", err)
			}
			return eh.onDealJoined(ctx, &event)
		}

	case models.EventTypeDealCompleted:
		if eh.onDealCompleted != nil {
			var event models.DealCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal DealCompleted event: %w", err)
			}
			return eh.onDealCompleted(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
