package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMetadata holds gateway response details as a JSONB column
type PaymentMetadata map[string]interface{}

// Value implements the driver.Valuer interface
func (m PaymentMetadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *PaymentMetadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for PaymentMetadata: %T", src)
	}
	return json.Unmarshal(data, m)
}

// Payment represents one payment attempt against a booking
type Payment struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	BookingID        uuid.UUID       `json:"booking_id" db:"booking_id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	Reference        string          `json:"reference" db:"reference"`                             // internal reference (STAYA_...)
	GatewayReference *string         `json:"gateway_reference,omitempty" db:"gateway_reference"`   // Paystack transaction reference
	Amount           float64         `json:"amount" db:"amount"`                                   // naira
	Currency         string          `json:"currency" db:"currency"`
	Channel          *string         `json:"channel,omitempty" db:"channel"` // card, bank, ussd...
	Status           PaymentStatus   `json:"status" db:"status"`
	AuthorizationURL *string         `json:"authorization_url,omitempty" db:"authorization_url"`
	Metadata         PaymentMetadata `json:"metadata,omitempty" db:"metadata"`
	PaidAt           *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	RefundedAt       *time.Time      `json:"refunded_at,omitempty" db:"refunded_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// IsFinal reports whether the payment has reached a terminal state
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusSuccess ||
		p.Status == PaymentStatusFailed ||
		p.Status == PaymentStatusCancelled ||
		p.Status == PaymentStatusRefunded
}

// AmountKobo returns the payment amount in kobo, the unit Paystack expects
func (p *Payment) AmountKobo() int64 {
	return int64(p.Amount * 100)
}

// InitializePaymentRequest represents the request to start a payment
type InitializePaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
}

// PaymentStats summarises payments for the admin dashboard
type PaymentStats struct {
	TotalPayments      int64   `json:"total_payments" db:"total_payments"`
	SuccessfulPayments int64   `json:"successful_payments" db:"successful_payments"`
	FailedPayments     int64   `json:"failed_payments" db:"failed_payments"`
	RefundedPayments   int64   `json:"refunded_payments" db:"refunded_payments"`
	TotalCollected     float64 `json:"total_collected" db:"total_collected"`
	TotalRefunded      float64 `json:"total_refunded" db:"total_refunded"`
}
