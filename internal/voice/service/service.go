// Package service implements the voice catalogue with a read-through cache.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/marianauyl-oss/amulet-backend-server/internal/cache"
	"github.com/marianauyl-oss/amulet-backend-server/internal/clock"
	"github.com/marianauyl-oss/amulet-backend-server/internal/config"
	"github.com/marianauyl-oss/amulet-backend-server/internal/voice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const activeVoicesCacheKey = "voices:active"

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
	catalog  cache.Cache[string, []domain.Voice]
	cacheTTL time.Duration
}

func New(p Params) domain.Service {
	var catalog cache.Cache[string, []domain.Voice] = cache.NoopCache[string, []domain.Voice]{}
	if p.Config.API.CatalogCacheTTL > 0 {
		catalog = cache.NewTTLCache[string, []domain.Voice]()
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("voice.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		catalog:  catalog,
		cacheTTL: p.Config.API.CatalogCacheTTL,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]domain.Voice, error) {
	if voices, ok := s.catalog.Get(activeVoicesCacheKey); ok {
		return voices, nil
	}

	var voices []domain.Voice
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&voices).Error
	if err != nil {
		return nil, err
	}

	s.catalog.Set(activeVoicesCacheKey, voices, s.cacheTTL)
	return voices, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Voice, error) {
	var voices []domain.Voice
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&voices).Error; err != nil {
		return nil, err
	}
	return voices, nil
}

func (s *Service) Create(ctx context.Context, name, voiceID string, active bool) (*domain.Voice, error) {
	name = strings.TrimSpace(name)
	voiceID = strings.TrimSpace(voiceID)
	if name == "" || voiceID == "" {
		return nil, domain.ErrInvalidData
	}

	var created *domain.Voice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.voiceIDExists(ctx, tx, voiceID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyExists
		}

		voice := &domain.Voice{
			ID:        s.genID.Generate(),
			Name:      name,
			VoiceID:   voiceID,
			Active:    active,
			CreatedAt: s.clock.Now(),
		}
		if err := tx.WithContext(ctx).Create(voice).Error; err != nil {
			return err
		}
		created = voice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.catalog.Delete(activeVoicesCacheKey)
	return created, nil
}

func (s *Service) BulkAdd(ctx context.Context, entries []domain.BulkEntry) (int, error) {
	added := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			name := strings.TrimSpace(entry.Name)
			voiceID := strings.TrimSpace(entry.VoiceID)
			if name == "" || voiceID == "" {
				continue
			}
			exists, err := s.voiceIDExists(ctx, tx, voiceID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			voice := &domain.Voice{
				ID:        s.genID.Generate(),
				Name:      name,
				VoiceID:   voiceID,
				Active:    true,
				CreatedAt: s.clock.Now(),
			}
			if err := tx.WithContext(ctx).Create(voice).Error; err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if added > 0 {
		s.catalog.Delete(activeVoicesCacheKey)
	}
	return added, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	var voice domain.Voice
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&voice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&domain.Voice{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.catalog.Delete(activeVoicesCacheKey)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec(`DELETE FROM voices`).Error; err != nil {
		return err
	}
	s.catalog.Delete(activeVoicesCacheKey)
	return nil
}

func (s *Service) voiceIDExists(ctx context.Context, db *gorm.DB, voiceID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Voice{}).
		Where("voice_id = ?", voiceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
