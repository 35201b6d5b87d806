package subscription

import (
	"github.com/ataboardhq/ataboard/internal/subscription/repository"
	"github.com/ataboardhq/ataboard/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
