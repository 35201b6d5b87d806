package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClientID snowflake.ID
	Status   SubscriptionStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscription, error)

	// CountOpen reports non-cancelled subscriptions for a (client, plan) pair.
	CountOpen(ctx context.Context, db *gorm.DB, clientID, planID snowflake.ID) (int64, error)

	// UpdateStatus performs a compare-and-set on status. It reports whether a
	// row was updated; false means the row was not in the expected state.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to SubscriptionStatus, endDate *time.Time, now time.Time) (bool, error)

	// ListBillable returns active subscriptions whose lifetime overlaps the
	// given period, keyset-paginated by id.
	ListBillable(ctx context.Context, db *gorm.DB, periodStart, periodEnd time.Time, afterID snowflake.ID, limit int) ([]Subscription, error)
}
