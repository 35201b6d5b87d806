package repository

import (
	"context"
	"errors"
	"time"

	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RepositoryImpl struct{}

func Provide() clientdomain.Repository {
	return &RepositoryImpl{}
}

func (r *RepositoryImpl) Insert(ctx context.Context, db *gorm.DB, client *clientdomain.Client) error {
	return db.WithContext(ctx).Create(client).Error
}

func (r *RepositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*clientdomain.Client, error) {
	var client clientdomain.Client
	err := db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *RepositoryImpl) List(ctx context.Context, db *gorm.DB, filter clientdomain.ListFilter) ([]clientdomain.Client, error) {
	query := db.WithContext(ctx).Model(&clientdomain.Client{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var clients []clientdomain.Client
	if err := query.Order("created_at DESC, id DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *RepositoryImpl) CountOverdueInvoices(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM invoices WHERE client_id = ? AND status = 'OVERDUE'`,
		clientID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RepositoryImpl) UpdateStanding(
	ctx context.Context,
	db *gorm.DB,
	clientID snowflake.ID,
	status clientdomain.ClientStatus,
	now time.Time,
) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE clients SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		status,
		now,
		clientID,
		status,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
