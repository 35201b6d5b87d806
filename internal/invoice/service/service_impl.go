package service

import (
	"context"
	"errors"
	"strings"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/config"
	"github.com/ataboardhq/ataboard/internal/events"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	obscontext "github.com/ataboardhq/ataboard/internal/observability/context"
	"github.com/ataboardhq/ataboard/internal/observability/metrics"
	paymentdomain "github.com/ataboardhq/ataboard/internal/payment/domain"
	"github.com/ataboardhq/ataboard/internal/period"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultBatchSize = 200

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Cfg           config.Config
	Repo          invoicedomain.Repository
	Subscriptions subdomain.Repository
	Plans         plandomain.Service
	Payments      paymentdomain.Repository
	Clients       clientdomain.Service
	Outbox        *events.Outbox
	Audit         auditdomain.Service
	Metrics       *metrics.BillingMetrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.Config
	repo     invoicedomain.Repository
	subs     subdomain.Repository
	plans    plandomain.Service
	payments paymentdomain.Repository
	clients  clientdomain.Service
	outbox   *events.Outbox
	audit    auditdomain.Service
	metrics  *metrics.BillingMetrics
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Cfg,
		repo:     p.Repo,
		subs:     p.Subscriptions,
		plans:    p.Plans,
		payments: p.Payments,
		clients:  p.Clients,
		outbox:   p.Outbox,
		audit:    p.Audit,
		metrics:  p.Metrics,
	}
}

func (s *Service) GenerateForPeriod(ctx context.Context, req invoicedomain.GenerateInvoiceRequest) (invoicedomain.Invoice, error) {
	subID, err := snowflake.ParseString(strings.TrimSpace(req.SubscriptionID))
	if err != nil {
		return invoicedomain.Invoice{}, subdomain.ErrInvalidSubscriptionID
	}
	month, err := period.ParseMonth(strings.TrimSpace(req.ReferenceMonth))
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	sub, err := s.subs.FindByID(ctx, s.db, subID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if sub == nil {
		return invoicedomain.Invoice{}, subdomain.ErrSubscriptionNotFound
	}

	invoice, _, err := s.generate(ctx, *sub, month)
	return invoice, err
}

// generate creates the invoice for one (subscription, month) pair. The
// second return value reports whether this call created the row; false means
// the invoice already existed. Concurrent generators race on the unique
// (subscription_id, reference_month) index and the loser reloads the
// winner's row, so the outcome is identical for both.
//
// Besides ACTIVE subscriptions, a CANCELLED one still bills the month its
// end date falls in: the final month is owed in full, and only the explicit
// per-period path reaches it (the batch run excludes cancelled rows).
func (s *Service) generate(ctx context.Context, sub subdomain.Subscription, month period.Month) (invoicedomain.Invoice, bool, error) {
	now := s.clock.Now(ctx)
	if month.After(period.MonthOf(now)) && !s.cfg.Billing.AllowFutureBilling {
		return invoicedomain.Invoice{}, false, invoicedomain.ErrFutureMonth
	}
	if month.Before(period.MonthOf(sub.StartDate)) {
		return invoicedomain.Invoice{}, false, invoicedomain.ErrMonthBeforeStart
	}
	switch sub.Status {
	case subdomain.SubscriptionStatusActive:
	case subdomain.SubscriptionStatusCancelled:
		// The final month is still billable while the end date falls inside
		// or after it.
		if sub.EndDate == nil || sub.EndDate.Before(month.Start()) {
			return invoicedomain.Invoice{}, false, invoicedomain.ErrSubscriptionNotActive
		}
	default:
		return invoicedomain.Invoice{}, false, invoicedomain.ErrSubscriptionNotActive
	}

	if existing, err := s.repo.FindByPeriod(ctx, s.db, sub.ID, month.String()); err != nil {
		return invoicedomain.Invoice{}, false, err
	} else if existing != nil {
		return *existing, false, nil
	}

	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return invoicedomain.Invoice{}, false, err
	}

	invoice := invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		SubscriptionID: sub.ID,
		ClientID:       sub.ClientID,
		PlanID:         plan.ID,
		ReferenceMonth: month.String(),
		Amount:         plan.Price,
		Currency:       s.cfg.Billing.Currency,
		Status:         invoicedomain.InvoiceStatusPending,
		DueDate:        period.DueDate(month, sub.BillingDay),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		payload := events.InvoicePayload{
			InvoiceID:      invoice.ID.String(),
			SubscriptionID: sub.ID.String(),
			ClientID:       sub.ClientID.String(),
			ReferenceMonth: invoice.ReferenceMonth,
			Amount:         invoice.Amount,
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventInvoiceGenerated,
			Payload:   payload.ToMap(),
			DedupeKey: "invoice:generated:" + sub.ID.String() + ":" + invoice.ReferenceMonth,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := s.repo.FindByPeriod(ctx, s.db, sub.ID, month.String())
			if findErr != nil {
				return invoicedomain.Invoice{}, false, findErr
			}
			if existing != nil {
				return *existing, false, nil
			}
		}
		return invoicedomain.Invoice{}, false, err
	}

	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.String("reference_month", invoice.ReferenceMonth),
		zap.Int64("amount", invoice.Amount),
	)
	return invoice, true, nil
}

func (s *Service) GenerateDueInvoices(ctx context.Context) (invoicedomain.GenerateReport, error) {
	now := s.clock.Now(ctx)
	month := period.MonthOf(now)
	report := invoicedomain.GenerateReport{ReferenceMonth: month.String()}

	batch := s.batchSize()
	var after snowflake.ID
	for {
		subs, err := s.subs.ListBillable(ctx, s.db, month.Start(), month.Next().Start(), after, batch)
		if err != nil {
			return report, err
		}
		if len(subs) == 0 {
			break
		}
		for _, sub := range subs {
			after = sub.ID
			_, created, err := s.generate(ctx, sub, month)
			if err != nil {
				report.Failures = append(report.Failures, invoicedomain.ItemFailure{
					ID:     sub.ID.String(),
					Reason: err.Error(),
				})
				continue
			}
			if created {
				report.Generated++
			} else {
				report.Skipped++
			}
		}
		if len(subs) < batch {
			break
		}
	}

	s.metrics.AddInvoicesGenerated(report.Generated)
	s.metrics.AddItemFailures("generate", len(report.Failures))
	s.log.Info("invoice generation run finished",
		zap.String("reference_month", report.ReferenceMonth),
		zap.Int("generated", report.Generated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (s *Service) SweepOverdue(ctx context.Context) (invoicedomain.SweepReport, error) {
	now := s.clock.Now(ctx)
	// An invoice stays PENDING through its whole due day; only due dates
	// strictly before today qualify.
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	report := invoicedomain.SweepReport{}

	batch := s.batchSize()
	var after snowflake.ID
	for {
		candidates, err := s.repo.ListSweepable(ctx, s.db, cutoff, after, batch)
		if err != nil {
			return report, err
		}
		if len(candidates) == 0 {
			break
		}
		for _, invoice := range candidates {
			after = invoice.ID
			swept, err := s.sweepOne(ctx, invoice, now)
			if err != nil {
				report.Failures = append(report.Failures, invoicedomain.ItemFailure{
					ID:     invoice.ID.String(),
					Reason: err.Error(),
				})
				continue
			}
			if swept {
				report.Swept++
			}
		}
		if len(candidates) < batch {
			break
		}
	}

	pending, err := s.repo.CountPending(ctx, s.db)
	if err != nil {
		return report, err
	}
	report.Pending = int(pending)

	s.metrics.AddInvoicesSwept(report.Swept)
	s.metrics.AddItemFailures("sweep", len(report.Failures))
	s.metrics.SetPendingBacklog(report.Pending)
	s.log.Info("overdue sweep finished",
		zap.Int("swept", report.Swept),
		zap.Int("pending", report.Pending),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (s *Service) sweepOne(ctx context.Context, invoice invoicedomain.Invoice, now time.Time) (bool, error) {
	var swept bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		approved, err := s.payments.SumApproved(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		if invoicedomain.ComputeStatus(invoice.Amount, approved, invoice.DueDate, now) != invoicedomain.InvoiceStatusOverdue {
			// Approved payments already cover the amount (a zero-amount
			// invoice counts as covered); a covered invoice is never OVERDUE
			// no matter how old its due date is.
			return nil
		}
		changed, err := s.repo.UpdateStatus(ctx, tx, invoice.ID, invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusOverdue, nil, now)
		if err != nil {
			return err
		}
		if !changed {
			// Paid or swept since the candidate list was read.
			return nil
		}
		swept = true
		payload := events.InvoicePayload{
			InvoiceID:      invoice.ID.String(),
			SubscriptionID: invoice.SubscriptionID.String(),
			ClientID:       invoice.ClientID.String(),
			ReferenceMonth: invoice.ReferenceMonth,
			Amount:         invoice.Amount,
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventInvoiceOverdue,
			Payload:   payload.ToMap(),
			DedupeKey: "invoice:overdue:" + invoice.ID.String(),
		}); err != nil {
			return err
		}
		_, err = s.clients.RecomputeStandingTx(ctx, tx, invoice.ClientID)
		return err
	})
	return swept, err
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	filter := invoicedomain.ListFilter{}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, clientdomain.ErrInvalidClientID
		}
		filter.ClientID = clientID
	}
	if raw := strings.TrimSpace(req.SubscriptionID); raw != "" {
		subID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, subdomain.ErrInvalidSubscriptionID
		}
		filter.SubscriptionID = subID
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := parseStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.ReferenceMonth); raw != "" {
		month, err := period.ParseMonth(raw)
		if err != nil {
			return nil, err
		}
		filter.ReferenceMonth = month.String()
	}
	return s.repo.List(ctx, s.db, filter)
}

// UpdateStatus is the manual override path. The requested status must equal
// the status derived from payments and the due date; the override can fix a
// drifted row but can never invent a state the payment history contradicts.
func (s *Service) UpdateStatus(ctx context.Context, id string, req invoicedomain.UpdateInvoiceStatusRequest) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	requested, err := parseStatus(req.Status)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}

	now := s.clock.Now(ctx)
	approved, err := s.payments.SumApproved(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	derived := invoicedomain.ComputeStatus(invoice.Amount, approved, invoice.DueDate, now)
	if requested != derived {
		return invoicedomain.Invoice{}, invoicedomain.ErrInconsistentStatus
	}
	if derived == invoice.Status {
		return *invoice, nil
	}

	var paidAt *time.Time
	if derived == invoicedomain.InvoiceStatusPaid {
		paidAt = invoice.PaidAt
		if paidAt == nil {
			paidAt = &now
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.UpdateStatus(ctx, tx, invoiceID, invoice.Status, derived, paidAt, now)
		if err != nil {
			return err
		}
		if !changed {
			return invoicedomain.ErrInconsistentStatus
		}
		payload := events.InvoicePayload{
			InvoiceID:      invoice.ID.String(),
			SubscriptionID: invoice.SubscriptionID.String(),
			ClientID:       invoice.ClientID.String(),
			ReferenceMonth: invoice.ReferenceMonth,
			Amount:         invoice.Amount,
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      statusEventType(derived),
			Payload:   payload.ToMap(),
			DedupeKey: "invoice:status:" + invoice.ID.String() + ":" + string(derived) + ":" + now.Format(time.RFC3339),
		}); err != nil {
			return err
		}
		if _, err := s.clients.RecomputeStandingTx(ctx, tx, invoice.ClientID); err != nil {
			return err
		}
		target := invoice.ID.String()
		return s.audit.AuditLog(ctx, tx, s.actor(ctx), "invoice.update_status", "invoice", &target, map[string]any{
			"from": string(invoice.Status),
			"to":   string(derived),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	invoice.Status = derived
	invoice.PaidAt = paidAt
	invoice.UpdatedAt = now
	s.log.Info("invoice status overridden",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("status", string(derived)),
	)
	return *invoice, nil
}

func (s *Service) batchSize() int {
	if s.cfg.Scheduler.BatchSize > 0 {
		return s.cfg.Scheduler.BatchSize
	}
	return defaultBatchSize
}

func (s *Service) actor(ctx context.Context) string {
	if actor := obscontext.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return auditdomain.ActorAdmin
}

func statusEventType(status invoicedomain.InvoiceStatus) string {
	switch status {
	case invoicedomain.InvoiceStatusPaid:
		return events.EventInvoicePaid
	case invoicedomain.InvoiceStatusOverdue:
		return events.EventInvoiceOverdue
	default:
		return events.EventInvoiceReopened
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, invoicedomain.ErrInvalidInvoiceID
	}
	return id, nil
}

func parseStatus(raw string) (invoicedomain.InvoiceStatus, error) {
	status := invoicedomain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusPaid, invoicedomain.InvoiceStatusOverdue:
		return status, nil
	default:
		return "", invoicedomain.ErrInvalidStatus
	}
}
