package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/ataboardhq/ataboard/internal/cache"
	"github.com/ataboardhq/ataboard/internal/clock"
	plandomain "github.com/ataboardhq/ataboard/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// planCacheTTL bounds how stale a plan read can be on the invoice hot path.
const planCacheTTL = 5 * time.Minute

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  plandomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  plandomain.Repository
	byID  *cache.TTLCache[snowflake.ID, plandomain.Plan]
}

func NewService(p Params) plandomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		byID:  cache.New[snowflake.ID, plandomain.Plan](planCacheTTL),
	}
}

func (s *Service) Create(ctx context.Context, req plandomain.CreatePlanRequest) (plandomain.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return plandomain.Plan{}, plandomain.ErrInvalidName
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return plandomain.Plan{}, plandomain.ErrInvalidSlug
	}
	if req.Price < 0 {
		return plandomain.Plan{}, plandomain.ErrInvalidPrice
	}

	now := s.clock.Now(ctx)
	plan := plandomain.Plan{
		ID:                   s.genID.Generate(),
		Name:                 name,
		Slug:                 slug,
		Price:                req.Price,
		Features:             toJSONMap(req.Features),
		Tools:                toJSONMap(req.Tools),
		MonthlyArtifactQuota: req.MonthlyArtifactQuota,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return plandomain.Plan{}, plandomain.ErrSlugTaken
		}
		return plandomain.Plan{}, err
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context) ([]plandomain.Plan, error) {
	return s.repo.List(ctx, s.db)
}

// GetByID serves reads through a short TTL cache. Inactive plans are still
// returned; callers decide whether inactive is acceptable.
func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (plandomain.Plan, error) {
	if plan, ok := s.byID.Get(id); ok {
		return plan, nil
	}
	plan, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return plandomain.Plan{}, err
	}
	if plan == nil {
		return plandomain.Plan{}, plandomain.ErrPlanNotFound
	}
	s.byID.Set(id, *plan)
	return *plan, nil
}

func toJSONMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
