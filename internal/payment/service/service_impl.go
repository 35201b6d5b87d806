package service

import (
	"context"
	"errors"
	"strings"
	"time"

	auditdomain "github.com/ataboardhq/ataboard/internal/audit/domain"
	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	"github.com/ataboardhq/ataboard/internal/clock"
	"github.com/ataboardhq/ataboard/internal/events"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	obscontext "github.com/ataboardhq/ataboard/internal/observability/context"
	paymentdomain "github.com/ataboardhq/ataboard/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     paymentdomain.Repository
	Invoices invoicedomain.Repository
	Clients  clientdomain.Service
	Outbox   *events.Outbox
	Audit    auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     paymentdomain.Repository
	invoices invoicedomain.Repository
	clients  clientdomain.Service
	outbox   *events.Outbox
	audit    auditdomain.Service
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		invoices: p.Invoices,
		clients:  p.Clients,
		outbox:   p.Outbox,
		audit:    p.Audit,
	}
}

// Record validates and persists a payment, then flips the invoice to the
// status the payment history now derives. Everything happens in one
// transaction so no observer ever sees an approved payment against an
// unpaid invoice.
func (s *Service) Record(ctx context.Context, req paymentdomain.RecordPaymentRequest) (paymentdomain.Payment, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		return paymentdomain.Payment{}, invoicedomain.ErrInvalidInvoiceID
	}
	if req.Amount <= 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}
	method := paymentdomain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	if !paymentdomain.ValidMethod(method) {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidMethod
	}

	now := s.clock.Now(ctx)
	var payment paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoices.FindByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		approved, err := s.repo.SumApproved(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if approved >= invoice.Amount {
			return paymentdomain.ErrInvoiceAlreadyPaid
		}
		if req.Amount != invoice.Amount {
			return paymentdomain.ErrAmountMismatch
		}

		payment = paymentdomain.Payment{
			ID:        s.genID.Generate(),
			InvoiceID: invoice.ID,
			ClientID:  invoice.ClientID,
			Amount:    req.Amount,
			Currency:  invoice.Currency,
			Method:    method,
			Status:    paymentdomain.PaymentStatusApproved,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
			payment.IdempotencyKey = &key
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return paymentdomain.ErrDuplicatePayment
			}
			return err
		}

		derived := invoicedomain.ComputeStatus(invoice.Amount, approved+req.Amount, invoice.DueDate, now)
		if derived != invoice.Status {
			var paidAt *time.Time
			if derived == invoicedomain.InvoiceStatusPaid {
				paidAt = &now
			}
			changed, err := s.invoices.UpdateStatus(ctx, tx, invoice.ID, invoice.Status, derived, paidAt, now)
			if err != nil {
				return err
			}
			if !changed {
				return invoicedomain.ErrInconsistentStatus
			}
			invoicePayload := events.InvoicePayload{
				InvoiceID:      invoice.ID.String(),
				SubscriptionID: invoice.SubscriptionID.String(),
				ClientID:       invoice.ClientID.String(),
				ReferenceMonth: invoice.ReferenceMonth,
				Amount:         invoice.Amount,
			}
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type:      events.EventInvoicePaid,
				Payload:   invoicePayload.ToMap(),
				DedupeKey: "invoice:paid:" + invoice.ID.String() + ":" + payment.ID.String(),
			}); err != nil {
				return err
			}
		}

		payload := events.PaymentPayload{
			PaymentID: payment.ID.String(),
			InvoiceID: invoice.ID.String(),
			ClientID:  invoice.ClientID.String(),
			Amount:    payment.Amount,
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventPaymentRecorded,
			Payload:   payload.ToMap(),
			DedupeKey: "payment:recorded:" + payment.ID.String(),
		}); err != nil {
			return err
		}
		if _, err := s.clients.RecomputeStandingTx(ctx, tx, invoice.ClientID); err != nil {
			return err
		}
		target := payment.ID.String()
		return s.audit.AuditLog(ctx, tx, s.actor(ctx), "payment.record", "payment", &target, map[string]any{
			"invoice_id": invoice.ID.String(),
			"amount":     payment.Amount,
			"method":     string(method),
		})
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
		zap.Int64("amount", payment.Amount),
	)
	return payment, nil
}

// Reverse undoes a recorded payment. The invoice is re-derived from the
// approved payments that remain, so reversing the only payment of a paid
// invoice reopens it as PENDING or OVERDUE depending on the due date.
func (s *Service) Reverse(ctx context.Context, id string) (paymentdomain.Payment, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	if payment.Status == paymentdomain.PaymentStatusReversed {
		return paymentdomain.Payment{}, paymentdomain.ErrAlreadyReversed
	}

	now := s.clock.Now(ctx)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.UpdateStatus(ctx, tx, paymentID, paymentdomain.PaymentStatusApproved, paymentdomain.PaymentStatusReversed, &now, now)
		if err != nil {
			return err
		}
		if !changed {
			return paymentdomain.ErrAlreadyReversed
		}

		invoice, err := s.invoices.FindByID(ctx, tx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		approved, err := s.repo.SumApproved(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		derived := invoicedomain.ComputeStatus(invoice.Amount, approved, invoice.DueDate, now)
		if derived != invoice.Status {
			var paidAt *time.Time
			if derived == invoicedomain.InvoiceStatusPaid {
				paidAt = invoice.PaidAt
			}
			changed, err := s.invoices.UpdateStatus(ctx, tx, invoice.ID, invoice.Status, derived, paidAt, now)
			if err != nil {
				return err
			}
			if !changed {
				return invoicedomain.ErrInconsistentStatus
			}
			invoicePayload := events.InvoicePayload{
				InvoiceID:      invoice.ID.String(),
				SubscriptionID: invoice.SubscriptionID.String(),
				ClientID:       invoice.ClientID.String(),
				ReferenceMonth: invoice.ReferenceMonth,
				Amount:         invoice.Amount,
			}
			eventType := events.EventInvoiceReopened
			if derived == invoicedomain.InvoiceStatusOverdue {
				eventType = events.EventInvoiceOverdue
			}
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type:      eventType,
				Payload:   invoicePayload.ToMap(),
				DedupeKey: "invoice:reverted:" + invoice.ID.String() + ":" + payment.ID.String(),
			}); err != nil {
				return err
			}
		}

		payload := events.PaymentPayload{
			PaymentID: payment.ID.String(),
			InvoiceID: invoice.ID.String(),
			ClientID:  invoice.ClientID.String(),
			Amount:    payment.Amount,
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventPaymentReversed,
			Payload:   payload.ToMap(),
			DedupeKey: "payment:reversed:" + payment.ID.String(),
		}); err != nil {
			return err
		}
		if _, err := s.clients.RecomputeStandingTx(ctx, tx, invoice.ClientID); err != nil {
			return err
		}
		target := payment.ID.String()
		return s.audit.AuditLog(ctx, tx, s.actor(ctx), "payment.reverse", "payment", &target, map[string]any{
			"invoice_id": invoice.ID.String(),
			"amount":     payment.Amount,
		})
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	payment.Status = paymentdomain.PaymentStatusReversed
	payment.ReversedAt = &now
	payment.UpdatedAt = now
	s.log.Info("payment reversed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", payment.InvoiceID.String()),
	)
	return *payment, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (paymentdomain.Payment, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	return *payment, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID string) ([]paymentdomain.Payment, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(invoiceID))
	if err != nil {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}
	return s.repo.ListByInvoice(ctx, s.db, id)
}

func (s *Service) actor(ctx context.Context) string {
	if actor := obscontext.ActorFromContext(ctx); actor != "" {
		return actor
	}
	return auditdomain.ActorAdmin
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, paymentdomain.ErrInvalidPaymentID
	}
	return id, nil
}
