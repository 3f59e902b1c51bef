package models

import "time"

// Event types
const (
	EventTypeDealCreated   = "DEAL_CREATED"
	EventTypeDealApproved  = "DEAL_APPROVED"
	EventTypeDealRejected  = "DEAL_REJECTED"
	EventTypeDealJoined    = "DEAL_JOINED"
	EventTypeDealCompleted = "DEAL_COMPLETED"
	EventTypeDealExpired   = "DEAL_EXPIRED"
	EventTypeOrderAdvanced = "ORDER_STATUS_ADVANCED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// DealCreatedEvent published when a supplier starts a deal
type DealCreatedEvent struct {
	BaseEvent
	DealID     int64     `json:"deal_id"`
	ProductID  int64     `json:"product_id"`
	SupplierID int64     `json:"supplier_id"`
	MOQ        int       `json:"moq"`
	EndTime    time.Time `json:"end_time"`
}

// DealApprovedEvent published when an admin approves a deal
type DealApprovedEvent struct {
	BaseEvent
	DealID int64 `json:"deal_id"`
}

// DealRejectedEvent published when an admin rejects a deal
type DealRejectedEvent struct {
	BaseEvent
	DealID int64 `json:"deal_id"`
}

// DealJoinedEvent published after a join commits. NewCount and
// NewParticipants carry the post-increment counters so consumers can
// mirror progress without re-reading the row.
type DealJoinedEvent struct {
	BaseEvent
	DealID          int64 `json:"deal_id"`
	OrderID         int64 `json:"order_id"`
	VendorID        int64 `json:"vendor_id"`
	Quantity        int   `json:"quantity"`
	TotalAmount     int64 `json:"total_amount"`
	NewCount        int   `json:"new_count"`
	NewParticipants int   `json:"new_participants"`
	Completed       bool  `json:"completed"`
}

// DealCompletedEvent published when a join pushes current_count to MOQ
type DealCompletedEvent struct {
	BaseEvent
	DealID       int64 `json:"deal_id"`
	CurrentCount int   `json:"current_count"`
	MOQ          int   `json:"moq"`
}

// OrderAdvancedEvent published when the supplier moves an order forward
type OrderAdvancedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	DealID    int64  `json:"deal_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}
