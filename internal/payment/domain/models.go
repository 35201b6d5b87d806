// Package domain defines recorded payments. Payments are append-only facts:
// a wrong payment is reversed, never edited, and invoice status is re-derived
// from what remains approved.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusReversed PaymentStatus = "REVERSED"
)

type PaymentMethod string

const (
	PaymentMethodPix      PaymentMethod = "PIX"
	PaymentMethodBoleto   PaymentMethod = "BOLETO"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

// Payment settles one invoice in full. IdempotencyKey lets gateway retries
// collapse onto the first recorded row.
type Payment struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceID      snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	ClientID       snowflake.ID  `gorm:"not null;index" json:"client_id"`
	Amount         int64         `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	Method         PaymentMethod `gorm:"type:text;not null" json:"method"`
	Status         PaymentStatus `gorm:"type:text;not null" json:"status"`
	IdempotencyKey *string       `gorm:"uniqueIndex" json:"idempotency_key,omitempty"`
	ReversedAt     *time.Time    `json:"reversed_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// ValidMethod reports whether the payment method is known.
func ValidMethod(method PaymentMethod) bool {
	switch method {
	case PaymentMethodPix, PaymentMethodBoleto, PaymentMethodCard, PaymentMethodTransfer:
		return true
	default:
		return false
	}
}
