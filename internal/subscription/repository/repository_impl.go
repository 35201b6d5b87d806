package repository

import (
	"context"
	"errors"
	"time"

	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RepositoryImpl struct{}

func Provide() subdomain.Repository {
	return &RepositoryImpl{}
}

func (r *RepositoryImpl) Insert(ctx context.Context, db *gorm.DB, sub *subdomain.Subscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *RepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subdomain.Subscription, error) {
	var sub subdomain.Subscription
	err := db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *RepositoryImpl) List(ctx context.Context, db *gorm.DB, filter subdomain.ListFilter) ([]subdomain.Subscription, error) {
	query := db.WithContext(ctx).Model(&subdomain.Subscription{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var subs []subdomain.Subscription
	if err := query.Order("created_at DESC, id DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *RepositoryImpl) CountOpen(ctx context.Context, db *gorm.DB, clientID, planID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM subscriptions WHERE client_id = ? AND plan_id = ? AND status <> 'CANCELLED'`,
		clientID,
		planID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RepositoryImpl) UpdateStatus(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	from, to subdomain.SubscriptionStatus,
	endDate *time.Time,
	now time.Time,
) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, end_date = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		endDate,
		now,
		id,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RepositoryImpl) ListBillable(
	ctx context.Context,
	db *gorm.DB,
	periodStart, periodEnd time.Time,
	afterID snowflake.ID,
	limit int,
) ([]subdomain.Subscription, error) {
	var subs []subdomain.Subscription
	err := db.WithContext(ctx).
		Where("status = ?", subdomain.SubscriptionStatusActive).
		Where("start_date < ?", periodEnd).
		Where("end_date IS NULL OR end_date >= ?", periodStart).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
