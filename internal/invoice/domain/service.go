package domain

import (
	"context"
	"errors"
)

type GenerateInvoiceRequest struct {
	SubscriptionID string `json:"subscription_id"`
	ReferenceMonth string `json:"reference_month"`
}

type ListInvoiceRequest struct {
	ClientID       string `form:"client_id"`
	SubscriptionID string `form:"subscription_id"`
	Status         string `form:"status"`
	ReferenceMonth string `form:"reference_month"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

// ItemFailure records one subscription or invoice a batch job could not
// process; the job keeps going.
type ItemFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// GenerateReport summarizes one run of the period generator.
type GenerateReport struct {
	ReferenceMonth string        `json:"reference_month"`
	Generated      int           `json:"generated"`
	Skipped        int           `json:"skipped"`
	Failures       []ItemFailure `json:"failures,omitempty"`
}

// SweepReport summarizes one run of the overdue sweeper.
type SweepReport struct {
	Swept    int           `json:"swept"`
	Pending  int           `json:"pending"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

type Service interface {
	// GenerateForPeriod creates (or idempotently returns) the invoice for
	// one subscription and reference month.
	GenerateForPeriod(ctx context.Context, req GenerateInvoiceRequest) (Invoice, error)

	// GenerateDueInvoices bills every active subscription for the current
	// month. Item failures are collected, not fatal.
	GenerateDueInvoices(ctx context.Context) (GenerateReport, error)

	// SweepOverdue promotes pending invoices past their due date to OVERDUE
	// and recomputes the standing of affected clients.
	SweepOverdue(ctx context.Context) (SweepReport, error)

	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) ([]Invoice, error)

	// UpdateStatus is the manual override. It only accepts the status the
	// payment history already derives; anything else is ErrInconsistentStatus.
	UpdateStatus(ctx context.Context, id string, req UpdateInvoiceStatusRequest) (Invoice, error)
}

var (
	ErrInvalidInvoiceID      = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound       = errors.New("invoice_not_found")
	ErrInvalidStatus         = errors.New("invalid_invoice_status")
	ErrInconsistentStatus    = errors.New("inconsistent_invoice_status")
	ErrFutureMonth           = errors.New("future_reference_month")
	ErrMonthBeforeStart      = errors.New("month_before_subscription_start")
	ErrSubscriptionNotActive = errors.New("subscription_not_active")
)
