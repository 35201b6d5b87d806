package invoice

import (
	"github.com/ataboardhq/ataboard/internal/invoice/repository"
	"github.com/ataboardhq/ataboard/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
