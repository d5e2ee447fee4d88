package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors the products table. Mutated only inside a transaction
// that holds a row lock on this row (see holds.Manager/orders.Manager).
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HoldStatus enumerates the lifecycle of a Hold.
type HoldStatus string

const (
	HoldActive  HoldStatus = "active"
	HoldUsed    HoldStatus = "used"
	HoldExpired HoldStatus = "expired"
)

// Hold mirrors the holds table.
type Hold struct {
	ID        int64
	ProductID int64
	Quantity  int
	Status    HoldStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

// OrderStatus enumerates the lifecycle of an Order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// Order mirrors the orders table. hold_id is UNIQUE: the structural
// guarantee that one Hold produces at most one Order.
type Order struct {
	ID         int64
	HoldID     int64
	ProductID  int64
	Quantity   int
	TotalPrice decimal.Decimal
	Status     OrderStatus
	PaidAt     *time.Time
	CreatedAt  time.Time
}

// WebhookStatus enumerates the recorded outcome of a webhook delivery.
type WebhookStatus string

const (
	WebhookSuccess WebhookStatus = "success"
	WebhookFailure WebhookStatus = "failure"
)

// WebhookLog mirrors the webhook_logs table. idempotency_key is UNIQUE:
// the primitive that collapses retried deliveries of the same key.
type WebhookLog struct {
	ID             int64
	IdempotencyKey string
	OrderID        *int64
	Status         WebhookStatus
	Payload        []byte
	ProcessedAt    time.Time
}
