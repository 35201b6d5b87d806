// Package domain holds the priced offering model. Plan price changes apply
// only to future invoice generation; generated invoices keep the snapshot
// taken at generation time.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Plan is a priced offering. Price is in integer minor units.
type Plan struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                 string            `gorm:"type:text;not null" json:"name"`
	Slug                 string            `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Price                int64             `gorm:"not null" json:"price"`
	Features             datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"features"`
	Tools                datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"tools"`
	MonthlyArtifactQuota int               `gorm:"not null;default:0" json:"monthly_artifact_quota"`
	IsActive             bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }
