package license

import (
	"github.com/marianauyl-oss/amulet-backend-server/internal/license/repository"
	"github.com/marianauyl-oss/amulet-backend-server/internal/license/service"
	"go.uber.org/fx"
)

var Module = fx.Module("license.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
