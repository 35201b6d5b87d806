// Package domain holds the billed-party model. A client's standing is
// derived from its invoices and is never edited directly.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ClientStatus is the derived standing of a billed party.
type ClientStatus string

const (
	ClientStatusActive     ClientStatus = "ACTIVE"
	ClientStatusDelinquent ClientStatus = "DELINQUENT"
)

// Client represents a billed party. Status is recomputed from invoice
// state by the standing aggregator; no other code path writes it.
type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	TaxID     string       `gorm:"type:text;not null;uniqueIndex" json:"tax_id"`
	Address   string       `gorm:"type:text" json:"address"`
	Status    ClientStatus `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
