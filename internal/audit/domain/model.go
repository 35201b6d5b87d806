// Package domain contains the audit trail model for administrative billing
// actions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Actor values for the audit trail.
const (
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// AuditLog captures an immutable record of an administrative action:
// subscription transitions, manual invoice overrides, payment recording.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	Actor      string            `gorm:"type:text;not null"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	RequestID  *string           `gorm:"type:text"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
