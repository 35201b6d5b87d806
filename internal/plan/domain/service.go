package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreatePlanRequest struct {
	Name                 string         `json:"name"`
	Slug                 string         `json:"slug"`
	Price                int64          `json:"price"`
	Features             map[string]any `json:"features"`
	Tools                map[string]any `json:"tools"`
	MonthlyArtifactQuota int            `json:"monthly_artifact_quota"`
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
	GetByID(ctx context.Context, id snowflake.ID) (Plan, error)
}

var (
	ErrInvalidPlanID = errors.New("invalid_plan_id")
	ErrPlanNotFound  = errors.New("plan_not_found")
	ErrPlanInactive  = errors.New("plan_inactive")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidSlug   = errors.New("invalid_slug")
	ErrSlugTaken     = errors.New("slug_taken")
	ErrInvalidPrice  = errors.New("invalid_price")
)
