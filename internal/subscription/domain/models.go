// Package domain defines the subscription aggregate and its state machine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription links a client to a plan. BillingDay is constrained to 1..28
// so every reference month has a literal due day before clamping rules even
// come into play; the clamp still guards historic rows.
type Subscription struct {
	ID         snowflake.ID       `gorm:"primaryKey" json:"id"`
	ClientID   snowflake.ID       `gorm:"not null;index" json:"client_id"`
	PlanID     snowflake.ID       `gorm:"not null;index" json:"plan_id"`
	Status     SubscriptionStatus `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	BillingDay int                `gorm:"not null" json:"billing_day"`
	StartDate  time.Time          `gorm:"not null" json:"start_date"`
	EndDate    *time.Time         `json:"end_date,omitempty"`
	CreatedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// Transition is a directed edge in the subscription state machine.
type Transition struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

// validTransitions enumerates every legal edge. CANCELLED is terminal.
var validTransitions = map[Transition]bool{
	{SubscriptionStatusActive, SubscriptionStatusCancelled}:    true,
	{SubscriptionStatusActive, SubscriptionStatusSuspended}:    true,
	{SubscriptionStatusSuspended, SubscriptionStatusActive}:    true,
	{SubscriptionStatusSuspended, SubscriptionStatusCancelled}: true,
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to SubscriptionStatus) bool {
	return validTransitions[Transition{From: from, To: to}]
}
