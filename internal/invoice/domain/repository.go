package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClientID       snowflake.ID
	SubscriptionID snowflake.ID
	Status         InvoiceStatus
	ReferenceMonth string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByPeriod(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, referenceMonth string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Invoice, error)

	// UpdateStatus performs a compare-and-set on status; false means the
	// invoice was no longer in the expected state.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to InvoiceStatus, paidAt *time.Time, now time.Time) (bool, error)

	// ListSweepable returns PENDING invoices whose due day elapsed before
	// cutoff, keyset-paginated by id.
	ListSweepable(ctx context.Context, db *gorm.DB, cutoff time.Time, afterID snowflake.ID, limit int) ([]Invoice, error)

	CountPending(ctx context.Context, db *gorm.DB) (int64, error)
}
