// Package domain defines the invoice aggregate. Invoice status is never
// free-form state: it is a pure function of the invoice amount, the sum of
// approved payments, and the due date relative to now. Every write path
// either applies that function or refuses the write.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// Invoice is one charge for one subscription in one reference month. The
// unique index on (subscription_id, reference_month) is the idempotency
// guarantee for generation: concurrent generators race on the insert and
// the loser reloads the winner's row.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID  `gorm:"not null;uniqueIndex:idx_invoices_subscription_month,priority:1" json:"subscription_id"`
	ClientID       snowflake.ID  `gorm:"not null;index" json:"client_id"`
	PlanID         snowflake.ID  `gorm:"not null" json:"plan_id"`
	ReferenceMonth string        `gorm:"type:text;not null;uniqueIndex:idx_invoices_subscription_month,priority:2" json:"reference_month"`
	Amount         int64         `gorm:"not null" json:"amount"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	Status         InvoiceStatus `gorm:"type:text;not null;default:'PENDING';index" json:"status"`
	DueDate        time.Time     `gorm:"not null" json:"due_date"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// ComputeStatus derives the status an invoice must carry. Full payment wins
// over lateness; an unpaid invoice turns OVERDUE only once the due day has
// fully elapsed (due dates are stored at midnight UTC, so the invoice stays
// PENDING through the whole due day).
func ComputeStatus(amount, approvedTotal int64, dueDate, now time.Time) InvoiceStatus {
	if approvedTotal >= amount {
		return InvoiceStatusPaid
	}
	if !now.Before(dueDate.AddDate(0, 0, 1)) {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusPending
}
