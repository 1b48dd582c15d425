package apikey

import (
	"github.com/marianauyl-oss/amulet-backend-server/internal/apikey/repository"
	"github.com/marianauyl-oss/amulet-backend-server/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
