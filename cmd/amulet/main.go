package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/marianauyl-oss/amulet-backend-server/internal/activity"
	"github.com/marianauyl-oss/amulet-backend-server/internal/apikey"
	"github.com/marianauyl-oss/amulet-backend-server/internal/appconfig"
	"github.com/marianauyl-oss/amulet-backend-server/internal/clock"
	"github.com/marianauyl-oss/amulet-backend-server/internal/config"
	"github.com/marianauyl-oss/amulet-backend-server/internal/license"
	"github.com/marianauyl-oss/amulet-backend-server/internal/migration"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability"
	"github.com/marianauyl-oss/amulet-backend-server/internal/seed"
	"github.com/marianauyl-oss/amulet-backend-server/internal/server"
	"github.com/marianauyl-oss/amulet-backend-server/internal/voice"
	"github.com/marianauyl-oss/amulet-backend-server/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			if err := migration.Run(conn); err != nil {
				return err
			}
			return seed.EnsureAppConfig(conn)
		}),
		activity.Module,
		license.Module,
		apikey.Module,
		voice.Module,
		appconfig.Module,
		server.Module,
	)
	app.Run()
}
