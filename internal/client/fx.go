package client

import (
	"github.com/ataboardhq/ataboard/internal/client/repository"
	"github.com/ataboardhq/ataboard/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
