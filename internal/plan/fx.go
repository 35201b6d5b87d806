package plan

import (
	"github.com/ataboardhq/ataboard/internal/plan/repository"
	"github.com/ataboardhq/ataboard/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
