// Package scheduler runs the unattended billing jobs: monthly invoice
// generation and the daily overdue sweep.
package scheduler

import (
	"context"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	"github.com/ataboardhq/ataboard/internal/config"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	obscontext "github.com/ataboardhq/ataboard/internal/observability/context"
	"github.com/ataboardhq/ataboard/internal/observability/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobGenerate = "generate"
	jobSweep    = "sweep"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	Log       *zap.Logger
	Invoices  invoicedomain.Service
	Metrics   *metrics.BillingMetrics `optional:"true"`
}

type Scheduler struct {
	cron     *cron.Cron
	log      *zap.Logger
	invoices invoicedomain.Service
	metrics  *metrics.BillingMetrics
}

func New(p Params) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		log:      p.Log.Named("scheduler"),
		invoices: p.Invoices,
		metrics:  p.Metrics,
	}

	if p.Cfg.Scheduler.Enabled {
		if _, err := s.cron.AddFunc(p.Cfg.Scheduler.GenerateSpec, func() {
			if err := s.RunGenerate(s.jobContext()); err != nil {
				s.log.Error("scheduled generation failed", zap.Error(err))
			}
		}); err != nil {
			return nil, err
		}
		if _, err := s.cron.AddFunc(p.Cfg.Scheduler.SweepSpec, func() {
			if err := s.RunSweep(s.jobContext()); err != nil {
				s.log.Error("scheduled sweep failed", zap.Error(err))
			}
		}); err != nil {
			return nil, err
		}

		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				s.cron.Start()
				s.log.Info("scheduler started",
					zap.String("generate_spec", p.Cfg.Scheduler.GenerateSpec),
					zap.String("sweep_spec", p.Cfg.Scheduler.SweepSpec),
				)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				stopped := s.cron.Stop()
				select {
				case <-stopped.Done():
				case <-ctx.Done():
				}
				return nil
			},
		})
	}
	return s, nil
}

// RunGenerate bills every active subscription for the current month. It is
// also invoked directly by the admin jobs endpoint.
func (s *Scheduler) RunGenerate(ctx context.Context) error {
	report, err := s.invoices.GenerateDueInvoices(ctx)
	s.metrics.ObserveJobRun(jobGenerate, err)
	if err != nil {
		return err
	}
	s.log.Info("generation job finished",
		zap.String("reference_month", report.ReferenceMonth),
		zap.Int("generated", report.Generated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", len(report.Failures)),
	)
	return nil
}

// RunSweep promotes pending invoices past their due date to overdue.
func (s *Scheduler) RunSweep(ctx context.Context) error {
	report, err := s.invoices.SweepOverdue(ctx)
	s.metrics.ObserveJobRun(jobSweep, err)
	if err != nil {
		return err
	}
	s.log.Info("sweep job finished",
		zap.Int("swept", report.Swept),
		zap.Int("pending", report.Pending),
		zap.Int("failures", len(report.Failures)),
	)
	return nil
}

func (s *Scheduler) jobContext() context.Context {
	return obscontext.WithActor(context.Background(), auditdomain.ActorSystem)
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(func(*Scheduler) {}),
)
