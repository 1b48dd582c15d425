// Package service implements the app config singleton access.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marianauyl-oss/amulet-backend-server/internal/appconfig/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/cache"
	"github.com/marianauyl-oss/amulet-backend-server/internal/clock"
	"github.com/marianauyl-oss/amulet-backend-server/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const snapshotCacheKey = "appconfig:snapshot"

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	snap     cache.Cache[string, domain.Snapshot]
	cacheTTL time.Duration
}

func New(p Params) domain.Service {
	var snap cache.Cache[string, domain.Snapshot] = cache.NoopCache[string, domain.Snapshot]{}
	if p.Config.API.CatalogCacheTTL > 0 {
		snap = cache.NewTTLCache[string, domain.Snapshot]()
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("appconfig.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		snap:     snap,
		cacheTTL: p.Config.API.CatalogCacheTTL,
	}
}

func (s *Service) Get(ctx context.Context) (domain.Snapshot, error) {
	if snapshot, ok := s.snap.Get(snapshotCacheKey); ok {
		return snapshot, nil
	}

	row, err := s.GetRaw(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		LatestVersion:      row.LatestVersion,
		ForceUpdate:        row.ForceUpdate,
		Maintenance:        row.Maintenance,
		MaintenanceMessage: row.MaintenanceMessage,
		UpdateDescription:  row.UpdateDescription,
		UpdateLinks:        decodeLinks(row.UpdateLinks),
	}
	s.snap.Set(snapshotCacheKey, snapshot, s.cacheTTL)
	return snapshot, nil
}

func (s *Service) GetRaw(ctx context.Context) (*domain.AppConfig, error) {
	var row domain.AppConfig
	err := s.db.WithContext(ctx).Order("id ASC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The seed creates the row at startup; an empty table after that
			// is a store fault, but return defaults rather than failing reads.
			return &domain.AppConfig{LatestVersion: "1.0.0"}, nil
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.AppConfig
		err := tx.WithContext(ctx).Order("id ASC").First(&row).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row = domain.AppConfig{ID: s.genID.Generate(), LatestVersion: "1.0.0"}
		}

		if req.LatestVersion != nil {
			row.LatestVersion = *req.LatestVersion
		}
		if req.ForceUpdate != nil {
			row.ForceUpdate = *req.ForceUpdate
		}
		if req.Maintenance != nil {
			row.Maintenance = *req.Maintenance
		}
		if req.MaintenanceMessage != nil {
			row.MaintenanceMessage = *req.MaintenanceMessage
		}
		if req.UpdateDescription != nil {
			row.UpdateDescription = *req.UpdateDescription
		}
		if req.UpdateLinks != nil {
			encoded, err := json.Marshal(req.UpdateLinks)
			if err != nil {
				return err
			}
			row.UpdateLinks = datatypes.JSON(encoded)
		}
		row.UpdatedAt = s.clock.Now()

		return tx.WithContext(ctx).Save(&row).Error
	})
	if err != nil {
		return err
	}

	s.snap.Delete(snapshotCacheKey)
	return nil
}

func decodeLinks(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var links []string
	if err := json.Unmarshal(raw, &links); err != nil {
		return []string{}
	}
	return links
}
