package main

import (
	"github.com/ataboardhq/ataboard/internal/audit"
	"github.com/ataboardhq/ataboard/internal/client"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/config"
	"github.com/ataboardhq/ataboard/internal/events"
	"github.com/ataboardhq/ataboard/internal/invoice"
	"github.com/ataboardhq/ataboard/internal/migration"
	"github.com/ataboardhq/ataboard/internal/observability"
	"github.com/ataboardhq/ataboard/internal/payment"
	"github.com/ataboardhq/ataboard/internal/plan"
	"github.com/ataboardhq/ataboard/internal/scheduler"
	"github.com/ataboardhq/ataboard/internal/seed"
	"github.com/ataboardhq/ataboard/internal/server"
	"github.com/ataboardhq/ataboard/internal/subscription"
	"github.com/ataboardhq/ataboard/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.SeedPlans {
				return seed.EnsurePlans(conn)
			}
			return nil
		}),
		events.Module,
		audit.Module,
		client.Module,
		plan.Module,
		subscription.Module,
		invoice.Module,
		payment.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
