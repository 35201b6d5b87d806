// Package seed bootstraps the default plan catalog on startup.
package seed

import (
	"context"
	"errors"
	"time"

	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type planSeed struct {
	name     string
	slug     string
	price    int64
	quota    int
	features map[string]any
}

// Prices in integer minor units.
var defaultPlans = []planSeed{
	{
		name:  "Starter",
		slug:  "starter",
		price: 4900,
		quota: 10,
		features: map[string]any{
			"support": "community",
		},
	},
	{
		name:  "Pro",
		slug:  "pro",
		price: 19900,
		quota: 100,
		features: map[string]any{
			"support":  "email",
			"reports":  true,
			"api_keys": true,
		},
	},
	{
		name:  "Enterprise",
		slug:  "enterprise",
		price: 79900,
		quota: 1000,
		features: map[string]any{
			"support":  "dedicated",
			"reports":  true,
			"api_keys": true,
			"sla":      "99.9",
		},
	},
}

// EnsurePlans seeds the default plans. Existing slugs are left untouched, so
// price edits made through the API survive restarts.
func EnsurePlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range defaultPlans {
			if err := ensurePlanTx(ctx, tx, node, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensurePlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, p planSeed) error {
	var plan plandomain.Plan
	err := tx.WithContext(ctx).Where("slug = ?", p.slug).First(&plan).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	now := time.Now().UTC()
	plan = plandomain.Plan{
		ID:                   node.Generate(),
		Name:                 p.name,
		Slug:                 p.slug,
		Price:                p.price,
		Features:             datatypes.JSONMap(p.features),
		Tools:                datatypes.JSONMap{},
		MonthlyArtifactQuota: p.quota,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return tx.WithContext(ctx).Create(&plan).Error
}
