package activity

import (
	"github.com/marianauyl-oss/amulet-backend-server/internal/activity/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("activity",
	fx.Provide(repository.Provide),
)
