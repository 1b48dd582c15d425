// Package seed bootstraps required rows at startup.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	appconfigdomain "github.com/marianauyl-oss/amulet-backend-server/internal/appconfig/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureAppConfig creates the singleton config row if the table is empty.
func EnsureAppConfig(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row appconfigdomain.AppConfig
		err := tx.WithContext(ctx).Order("id ASC").First(&row).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row = appconfigdomain.AppConfig{
			ID:                node.Generate(),
			LatestVersion:     "1.0.0",
			UpdateDescription: "Initial config",
			UpdateLinks:       datatypes.JSON([]byte("[]")),
			UpdatedAt:         time.Now().UTC(),
		}
		return tx.WithContext(ctx).Create(&row).Error
	})
}
