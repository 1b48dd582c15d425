// Package db opens the gorm connection shared by every repository.
package db

import (
	"context"
	"strings"

	"github.com/marianauyl-oss/amulet-backend-server/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSQLitePath = "amulet.db"

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the configured database and registers a shutdown hook.
// A postgres DSN selects postgres; anything else is treated as a sqlite path.
func Open(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector := dialectorFor(cfg.DatabaseURL)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	log.Info("database connected", zap.String("dialect", conn.Dialector.Name()))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return conn, nil
}

func dialectorFor(databaseURL string) gorm.Dialector {
	dsn := strings.TrimSpace(databaseURL)
	switch {
	case dsn == "":
		return sqlite.Open(defaultSQLitePath)
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return postgres.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}
