// Package migration keeps the schema in sync with the persistence models.
package migration

import (
	activitydomain "github.com/marianauyl-oss/amulet-backend-server/internal/activity/domain"
	apikeydomain "github.com/marianauyl-oss/amulet-backend-server/internal/apikey/domain"
	appconfigdomain "github.com/marianauyl-oss/amulet-backend-server/internal/appconfig/domain"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
	voicedomain "github.com/marianauyl-oss/amulet-backend-server/internal/voice/domain"
	"gorm.io/gorm"
)

// Run migrates every persisted model.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&licensedomain.License{},
		&activitydomain.ActivityLog{},
		&apikeydomain.APIKey{},
		&voicedomain.Voice{},
		&appconfigdomain.AppConfig{},
	)
}
