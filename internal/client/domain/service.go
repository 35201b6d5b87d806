package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
}

type ListClientRequest struct {
	Status string `form:"status"`
}

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	GetByID(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, req ListClientRequest) ([]Client, error)

	// RecomputeStanding derives the client's standing from its invoices:
	// DELINQUENT iff at least one invoice is overdue. It is the only code
	// path allowed to write clients.status.
	RecomputeStanding(ctx context.Context, clientID snowflake.ID) (ClientStatus, error)

	// RecomputeStandingTx is the transactional variant, invoked by the
	// payment recorder and the overdue sweeper inside the same transaction
	// as the triggering invoice write.
	RecomputeStandingTx(ctx context.Context, tx *gorm.DB, clientID snowflake.ID) (ClientStatus, error)
}

var (
	ErrInvalidClientID = errors.New("invalid_client_id")
	ErrClientNotFound  = errors.New("client_not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidTaxID    = errors.New("invalid_tax_id")
	ErrTaxIDTaken      = errors.New("tax_id_taken")
	ErrInvalidStatus   = errors.New("invalid_status")
)
