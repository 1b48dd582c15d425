// Package service implements the upstream API key rotator.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/marianauyl-oss/amulet-backend-server/internal/apikey/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/clock"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/logger"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.LedgerMetrics
}

func New(p Params) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("apikey.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) NextActive(ctx context.Context) (*domain.APIKey, error) {
	key, err := s.repo.FirstWithStatus(ctx, s.db, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, domain.ErrNoActiveKey
	}
	if s.metrics != nil {
		s.metrics.IncKeyRotation()
	}
	return key, nil
}

func (s *Service) Deactivate(ctx context.Context, value string) (*domain.APIKey, error) {
	value = strings.TrimSpace(value)

	var deactivated *domain.APIKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, err := s.repo.FindByValueForUpdate(ctx, tx, value)
		if err != nil {
			return err
		}
		if key == nil {
			return domain.ErrNotFound
		}
		if key.Status != domain.StatusInactive {
			key.Status = domain.StatusInactive
			if err := s.repo.Update(ctx, tx, key); err != nil {
				return err
			}
		}
		deactivated = key
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncKeyDeactivated()
	}
	s.log.Info("api key deactivated", zap.String("api_key", logger.MaskAPIKey(deactivated.Value)))
	return deactivated, nil
}

func (s *Service) List(ctx context.Context) ([]domain.APIKey, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Create(ctx context.Context, value, status string) (*domain.APIKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, domain.ErrValueRequired
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = domain.StatusActive
	}

	key := &domain.APIKey{
		ID:        s.genID.Generate(),
		Value:     value,
		Status:    status,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	key, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if key == nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}
