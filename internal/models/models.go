package models

import "time"

// Role is the closed set of user roles. Assigned at signup, immutable after.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleVendor, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// User represents an identity-backed profile
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         Role      `db:"role" json:"role"`
	IsVerified   bool      `db:"is_verified" json:"is_verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Category is admin-owned reference data
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	NameHindi string    `db:"name_hindi" json:"name_hindi,omitempty"`
	Icon      string    `db:"icon" json:"icon,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product represents a supplier's catalog entry.
// BulkPrice is in paise to keep arithmetic exact.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	SupplierID  int64     `db:"supplier_id" json:"supplier_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	MOQ         int       `db:"moq" json:"moq"`
	BulkPrice   int64     `db:"bulk_price" json:"bulk_price"`
	Stock       int       `db:"stock" json:"stock"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	IsVerified  bool      `db:"is_verified" json:"is_verified"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Deal is a time-boxed group-buying offer against a product. MOQ is a
// snapshot taken when the deal starts; the product's own MOQ may drift later.
type Deal struct {
	ID                int64     `db:"id" json:"id"`
	ProductID         int64     `db:"product_id" json:"product_id"`
	SupplierID        int64     `db:"supplier_id" json:"supplier_id"`
	MOQ               int       `db:"moq" json:"moq"`
	EndTime           time.Time `db:"end_time" json:"end_time"`
	Status            string    `db:"status" json:"status"`
	IsApproved        bool      `db:"is_approved" json:"is_approved"`
	CurrentCount      int       `db:"current_count" json:"current_count"`
	ParticipantsCount int       `db:"participants_count" json:"participants_count"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the deal is in a state no transition leaves.
func (d *Deal) Terminal() bool {
	switch d.Status {
	case DealStatusCompleted, DealStatusExpired, DealStatusRejected:
		return true
	}
	return false
}

// Order records a vendor's committed quantity against a deal.
// UnitPrice captures the product's bulk price at join time so later price
// changes never alter existing orders.
type Order struct {
	ID             int64     `db:"id" json:"id"`
	DealID         int64     `db:"deal_id" json:"deal_id"`
	VendorID       int64     `db:"vendor_id" json:"vendor_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPrice      int64     `db:"unit_price" json:"unit_price"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Deal statuses
const (
	DealStatusActive    = "active"
	DealStatusPaused    = "paused"
	DealStatusCompleted = "completed"
	DealStatusExpired   = "expired"
	DealStatusRejected  = "rejected"
)

// Order statuses, advanced forward-only by the supplier owning the deal
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
