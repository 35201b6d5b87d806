package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]Payment, error)

	// SumApproved totals the approved payments recorded against an invoice.
	SumApproved(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (int64, error)

	// UpdateStatus performs a compare-and-set on status; false means the
	// payment was no longer in the expected state.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to PaymentStatus, reversedAt *time.Time, now time.Time) (bool, error)
}
