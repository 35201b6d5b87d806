// Package events stores billing lifecycle events in a transactional outbox
// so downstream consumers (notifications, reporting) observe exactly the
// committed state transitions.
package events

// Billing event types.
const (
	EventInvoiceGenerated       = "invoice.generated"
	EventInvoicePaid            = "invoice.paid"
	EventInvoiceOverdue         = "invoice.overdue"
	EventInvoiceReopened        = "invoice.reopened"
	EventPaymentRecorded        = "payment.recorded"
	EventPaymentReversed        = "payment.reversed"
	EventSubscriptionCancelled  = "subscription.cancelled"
	EventSubscriptionSuspended  = "subscription.suspended"
	EventSubscriptionActivated  = "subscription.activated"
	EventClientStandingChanged  = "client.standing_changed"
)

// InvoicePayload is the minimal payload for invoice lifecycle events.
type InvoicePayload struct {
	InvoiceID      string `json:"invoice_id"`
	SubscriptionID string `json:"subscription_id"`
	ClientID       string `json:"client_id"`
	ReferenceMonth string `json:"reference_month"`
	Amount         int64  `json:"amount"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	return map[string]any{
		"invoice_id":      p.InvoiceID,
		"subscription_id": p.SubscriptionID,
		"client_id":       p.ClientID,
		"reference_month": p.ReferenceMonth,
		"amount":          p.Amount,
	}
}

// PaymentPayload is the minimal payload for payment events.
type PaymentPayload struct {
	PaymentID string `json:"payment_id"`
	InvoiceID string `json:"invoice_id"`
	ClientID  string `json:"client_id"`
	Amount    int64  `json:"amount"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	return map[string]any{
		"payment_id": p.PaymentID,
		"invoice_id": p.InvoiceID,
		"client_id":  p.ClientID,
		"amount":     p.Amount,
	}
}

// StandingPayload records a client standing flip.
type StandingPayload struct {
	ClientID string `json:"client_id"`
	Standing string `json:"standing"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p StandingPayload) ToMap() map[string]any {
	return map[string]any{
		"client_id": p.ClientID,
		"standing":  p.Standing,
	}
}
