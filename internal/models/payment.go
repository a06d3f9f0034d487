package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerificationRequest is a caller's claim that an order has been paid.
// An empty TrxID means the backend looks the payment up by order ID.
type VerificationRequest struct {
	OrderID       string          `json:"order_id" validate:"required,max=128"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	TrxID         string          `json:"trx_id,omitempty"`
}

// PrepareRequest registers an order that is about to be paid.
type PrepareRequest struct {
	OrderID       string          `json:"order_id" validate:"required,max=128"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
}

type BatchVerificationRequest struct {
	Items []VerificationRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

// PendingOrder is what the checkout flow remembers between preparing an
// order and verifying it.
type PendingOrder struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// VerificationRecord is one audited verification attempt.
type VerificationRecord struct {
	ID            string
	OrderID       string
	PaymentMethod string
	Amount        decimal.Decimal
	TrxID         string
	Status        VerificationStatus
	ErrorCode     string
	ErrorMessage  string
	CreatedAt     time.Time
}

// VerificationEvent is published after every completed verification.
type VerificationEvent struct {
	EventID       string             `json:"event_id"`
	OrderID       string             `json:"order_id"`
	Status        VerificationStatus `json:"status"`
	TrxID         string             `json:"trx_id,omitempty"`
	Amount        string             `json:"amount"`
	PaymentMethod string             `json:"payment_method"`
	StoreID       int                `json:"store_id,omitempty"`
	ErrorCode     string             `json:"error_code,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}
