package voice

import (
	"github.com/marianauyl-oss/amulet-backend-server/internal/voice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("voice.service",
	fx.Provide(service.New),
)
