package repository

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RepositoryImpl struct{}

func Provide() invoicedomain.Repository {
	return &RepositoryImpl{}
}

func (r *RepositoryImpl) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *RepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *RepositoryImpl) FindByPeriod(
	ctx context.Context,
	db *gorm.DB,
	subscriptionID snowflake.ID,
	referenceMonth string,
) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).
		Where("subscription_id = ? AND reference_month = ?", subscriptionID, referenceMonth).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *RepositoryImpl) List(ctx context.Context, db *gorm.DB, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	query := db.WithContext(ctx).Model(&invoicedomain.Invoice{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.SubscriptionID != 0 {
		query = query.Where("subscription_id = ?", filter.SubscriptionID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReferenceMonth != "" {
		query = query.Where("reference_month = ?", filter.ReferenceMonth)
	}
	var invoices []invoicedomain.Invoice
	if err := query.Order("due_date DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *RepositoryImpl) UpdateStatus(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	from, to invoicedomain.InvoiceStatus,
	paidAt *time.Time,
	now time.Time,
) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, paid_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		paidAt,
		now,
		id,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RepositoryImpl) ListSweepable(
	ctx context.Context,
	db *gorm.DB,
	cutoff time.Time,
	afterID snowflake.ID,
	limit int,
) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := db.WithContext(ctx).
		Where("status = ?", invoicedomain.InvoiceStatusPending).
		Where("due_date < ?", cutoff).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *RepositoryImpl) CountPending(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM invoices WHERE status = 'PENDING'`,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
