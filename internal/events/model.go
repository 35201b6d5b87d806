package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingEvent is a row in the transactional outbox. DedupeKey is nullable;
// the unique index only constrains events that opt into deduplication.
type BillingEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	EventType string            `gorm:"type:text;not null" json:"event_type"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	DedupeKey *string           `gorm:"uniqueIndex" json:"dedupe_key,omitempty"`
	Published bool              `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (BillingEvent) TableName() string { return "billing_events" }
