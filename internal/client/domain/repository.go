package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status ClientStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Client, error)

	// CountOverdueInvoices returns the number of overdue invoices owned by
	// the client, the sole input to the standing derivation.
	CountOverdueInvoices(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (int64, error)

	// UpdateStanding flips clients.status and reports whether a row
	// changed, so callers emit standing events only on real transitions.
	UpdateStanding(ctx context.Context, db *gorm.DB, clientID snowflake.ID, status ClientStatus, now time.Time) (bool, error)
}
