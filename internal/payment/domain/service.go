package domain

import (
	"context"
	"errors"
)

type RecordPaymentRequest struct {
	InvoiceID      string `json:"invoice_id"`
	Amount         int64  `json:"amount"`
	Method         string `json:"method"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type Service interface {
	// Record registers an approved payment against an invoice and flips the
	// invoice to PAID in the same transaction.
	Record(ctx context.Context, req RecordPaymentRequest) (Payment, error)

	// Reverse marks a payment REVERSED and re-derives the invoice status
	// from the remaining approved payments.
	Reverse(ctx context.Context, id string) (Payment, error)

	GetByID(ctx context.Context, id string) (Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Payment, error)
}

var (
	ErrInvalidPaymentID   = errors.New("invalid_payment_id")
	ErrPaymentNotFound    = errors.New("payment_not_found")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrAmountMismatch     = errors.New("amount_mismatch")
	ErrInvalidMethod      = errors.New("invalid_payment_method")
	ErrInvoiceAlreadyPaid = errors.New("invoice_already_paid")
	ErrDuplicatePayment   = errors.New("duplicate_payment")
	ErrAlreadyReversed    = errors.New("payment_already_reversed")
)
