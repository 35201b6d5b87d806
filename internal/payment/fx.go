package payment

import (
	"github.com/ataboardhq/ataboard/internal/payment/repository"
	"github.com/ataboardhq/ataboard/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
