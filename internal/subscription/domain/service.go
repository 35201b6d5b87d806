package domain

import (
	"context"
	"errors"
)

type CreateSubscriptionRequest struct {
	ClientID   string `json:"client_id"`
	PlanID     string `json:"plan_id"`
	BillingDay int    `json:"billing_day"`
	StartDate  string `json:"start_date,omitempty"`
}

type ListSubscriptionRequest struct {
	ClientID string `form:"client_id"`
	Status   string `form:"status"`
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (Subscription, error)
	GetByID(ctx context.Context, id string) (Subscription, error)
	List(ctx context.Context, req ListSubscriptionRequest) ([]Subscription, error)
	Cancel(ctx context.Context, id string) (Subscription, error)
	Suspend(ctx context.Context, id string) (Subscription, error)
	Activate(ctx context.Context, id string) (Subscription, error)
}

var (
	ErrInvalidSubscriptionID   = errors.New("invalid_subscription_id")
	ErrSubscriptionNotFound    = errors.New("subscription_not_found")
	ErrInvalidBillingDay       = errors.New("invalid_billing_day")
	ErrInvalidStartDate        = errors.New("invalid_start_date")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidTransition       = errors.New("invalid_transition")
	ErrOverlappingSubscription = errors.New("overlapping_subscription")
	ErrClientDelinquent        = errors.New("client_delinquent")
)
