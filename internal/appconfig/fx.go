package appconfig

import (
	"github.com/marianauyl-oss/amulet-backend-server/internal/appconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("appconfig.service",
	fx.Provide(service.New),
)
