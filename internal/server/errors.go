package server

import (
	"errors"
	"net/http"

	clientdomain "github.com/ataboardhq/ataboard/internal/client/domain"
	invoicedomain "github.com/ataboardhq/ataboard/internal/invoice/domain"
	paymentdomain "github.com/ataboardhq/ataboard/internal/payment/domain"
	"github.com/ataboardhq/ataboard/internal/period"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	subdomain "github.com/ataboardhq/ataboard/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

var ErrNotFound = &apiError{
	Status:  http.StatusNotFound,
	Code:    "not_found",
	Message: "resource not found",
}

func invalidRequestError() *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_request",
		Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

func newConflictError(code, message string) *apiError {
	return &apiError{
		Status:  http.StatusConflict,
		Code:    code,
		Message: message,
	}
}

func newNotFoundError(code, message string) *apiError {
	return &apiError{
		Status:  http.StatusNotFound,
		Code:    code,
		Message: message,
	}
}

// domainErrors maps service sentinels onto HTTP responses. Anything not
// listed here is treated as an internal error.
var domainErrors = map[error]*apiError{
	clientdomain.ErrInvalidClientID: newValidationError("client_id", "invalid_client_id", "invalid client id"),
	clientdomain.ErrInvalidName:     newValidationError("name", "invalid_name", "name is required"),
	clientdomain.ErrInvalidEmail:    newValidationError("email", "invalid_email", "invalid email"),
	clientdomain.ErrInvalidTaxID:    newValidationError("tax_id", "invalid_tax_id", "tax id must have 11 or 14 digits"),
	clientdomain.ErrInvalidStatus:   newValidationError("status", "invalid_status", "invalid client status"),
	clientdomain.ErrClientNotFound:  newNotFoundError("client_not_found", "client not found"),
	clientdomain.ErrTaxIDTaken:      newConflictError("tax_id_taken", "a client with this tax id already exists"),

	plandomain.ErrInvalidPlanID: newValidationError("plan_id", "invalid_plan_id", "invalid plan id"),
	plandomain.ErrInvalidName:   newValidationError("name", "invalid_name", "name is required"),
	plandomain.ErrInvalidSlug:   newValidationError("slug", "invalid_slug", "slug must be lowercase kebab-case"),
	plandomain.ErrInvalidPrice:  newValidationError("price", "invalid_price", "price must not be negative"),
	plandomain.ErrPlanNotFound:  newNotFoundError("plan_not_found", "plan not found"),
	plandomain.ErrPlanInactive:  newConflictError("plan_inactive", "plan is not active"),
	plandomain.ErrSlugTaken:     newConflictError("slug_taken", "a plan with this slug already exists"),

	subdomain.ErrInvalidSubscriptionID:   newValidationError("subscription_id", "invalid_subscription_id", "invalid subscription id"),
	subdomain.ErrInvalidBillingDay:       newValidationError("billing_day", "invalid_billing_day", "billing day must be between 1 and 28"),
	subdomain.ErrInvalidStartDate:        newValidationError("start_date", "invalid_start_date", "start date must be YYYY-MM-DD"),
	subdomain.ErrInvalidStatus:           newValidationError("status", "invalid_status", "invalid subscription status"),
	subdomain.ErrSubscriptionNotFound:    newNotFoundError("subscription_not_found", "subscription not found"),
	subdomain.ErrInvalidTransition:       newConflictError("invalid_transition", "transition not allowed from current status"),
	subdomain.ErrOverlappingSubscription: newConflictError("overlapping_subscription", "client already has an open subscription for this plan"),
	subdomain.ErrClientDelinquent:        newConflictError("client_delinquent", "client has overdue invoices"),

	period.ErrInvalidMonth: newValidationError("reference_month", "invalid_reference_month", "reference month must be YYYY-MM"),

	invoicedomain.ErrInvalidInvoiceID:      newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"),
	invoicedomain.ErrInvalidStatus:         newValidationError("status", "invalid_status", "invalid invoice status"),
	invoicedomain.ErrFutureMonth:           newValidationError("reference_month", "future_reference_month", "reference month is in the future"),
	invoicedomain.ErrMonthBeforeStart:      newValidationError("reference_month", "month_before_start", "reference month precedes the subscription start"),
	invoicedomain.ErrInvoiceNotFound:       newNotFoundError("invoice_not_found", "invoice not found"),
	invoicedomain.ErrInconsistentStatus:    newConflictError("inconsistent_status", "requested status contradicts the payment history"),
	invoicedomain.ErrSubscriptionNotActive: newConflictError("subscription_not_active", "subscription is not billable for this month"),

	paymentdomain.ErrInvalidPaymentID:   newValidationError("payment_id", "invalid_payment_id", "invalid payment id"),
	paymentdomain.ErrInvalidAmount:      newValidationError("amount", "invalid_amount", "amount must be positive"),
	paymentdomain.ErrInvalidMethod:      newValidationError("method", "invalid_method", "unknown payment method"),
	paymentdomain.ErrAmountMismatch:     newConflictError("amount_mismatch", "amount does not match the invoice amount"),
	paymentdomain.ErrPaymentNotFound:    newNotFoundError("payment_not_found", "payment not found"),
	paymentdomain.ErrInvoiceAlreadyPaid: newConflictError("invoice_already_paid", "invoice is already fully paid"),
	paymentdomain.ErrDuplicatePayment:   newConflictError("duplicate_payment", "a payment with this idempotency key already exists"),
	paymentdomain.ErrAlreadyReversed:    newConflictError("payment_already_reversed", "payment is already reversed"),
}

// AbortWithError renders err as a JSON error response.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}
	for sentinel, mapped := range domainErrors {
		if errors.Is(err, sentinel) {
			c.AbortWithStatusJSON(mapped.Status, gin.H{"error": mapped})
			return
		}
	}

	zap.L().Error("unhandled request error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &apiError{
		Code:    "internal_error",
		Message: "internal error",
	}})
}
