// Package service implements the license activation engine and credit ledger.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/marianauyl-oss/amulet-backend-server/internal/activity/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/clock"
	licensedomain "github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
	"github.com/marianauyl-oss/amulet-backend-server/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         licensedomain.Repository
	ActivityRepo activitydomain.Repository
	Metrics      *metrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	clock        clock.Clock
	repo         licensedomain.Repository
	activityRepo activitydomain.Repository
	metrics      *metrics.LedgerMetrics
}

func New(p Params) licensedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("license.service"),

		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		activityRepo: p.ActivityRepo,
		metrics:      p.Metrics,
	}
}

// Check validates a license key against a device identifier. The first
// successful check on an unbound license claims the device lock; nothing
// mutates on any rejection path.
func (s *Service) Check(ctx context.Context, key, macID string) (licensedomain.CheckResult, error) {
	key = strings.TrimSpace(key)
	macID = strings.TrimSpace(macID)
	if key == "" || macID == "" {
		return licensedomain.CheckResult{}, licensedomain.ErrKeyMacRequired
	}

	var result licensedomain.CheckResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		license, err := s.repo.FindByKeyForUpdate(ctx, tx, key)
		if err != nil {
			return err
		}
		if license == nil {
			return licensedomain.ErrNotFound
		}
		if !license.Active {
			return licensedomain.ErrInactive
		}

		switch bound := license.BoundMac(); {
		case bound == "":
			license.MacID = &macID
			license.UpdatedAt = s.clock.Now()
			if err := s.repo.Update(ctx, tx, license); err != nil {
				return err
			}
			s.log.Info("license bound to device", zap.String("license_id", license.ID.String()))
		case bound != macID:
			return licensedomain.ErrDeviceMismatch
		}

		result = licensedomain.CheckResult{Credit: license.Credit}
		return nil
	})
	s.observe("check", err)
	if err != nil {
		return licensedomain.CheckResult{}, err
	}
	return result, nil
}

// Debit decrements the balance and appends the audit row in one transaction.
// Unlike Check, an unbound license is not exempt from the device match: a
// debit before activation fails unless the submitted identifier is empty too.
func (s *Service) Debit(ctx context.Context, req licensedomain.DebitRequest) (licensedomain.DebitResult, error) {
	key := strings.TrimSpace(req.Key)
	macID := strings.TrimSpace(req.MacID)

	var result licensedomain.DebitResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		license, err := s.repo.FindByKeyForUpdate(ctx, tx, key)
		if err != nil {
			return err
		}
		if license == nil {
			return licensedomain.ErrNotFound
		}
		if license.BoundMac() != macID {
			return licensedomain.ErrDeviceMismatch
		}
		if license.Credit < req.Count {
			return &licensedomain.InsufficientCreditError{Credit: license.Credit}
		}

		license.Credit -= req.Count
		license.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, license); err != nil {
			return err
		}

		entry := &activitydomain.ActivityLog{
			ID:        s.genID.Generate(),
			LicenseID: license.ID,
			Action:    activitydomain.ActionDebit,
			CharCount: req.Count,
			Details:   fmt.Sprintf("model=%s", req.Model),
			CreatedAt: s.clock.Now(),
		}
		if err := s.activityRepo.Insert(ctx, tx, entry); err != nil {
			return err
		}

		result = licensedomain.DebitResult{Debited: req.Count, Credit: license.Credit}
		return nil
	})
	s.observe("debit", err)
	if err != nil {
		return licensedomain.DebitResult{}, err
	}
	if s.metrics != nil {
		s.metrics.AddCreditsMoved("debit", result.Debited)
	}
	return result, nil
}

// Refund restores credit unconditionally under the same device precondition
// as Debit. There is no sufficiency check and no cap.
func (s *Service) Refund(ctx context.Context, req licensedomain.RefundRequest) (licensedomain.RefundResult, error) {
	key := strings.TrimSpace(req.Key)
	macID := strings.TrimSpace(req.MacID)

	var result licensedomain.RefundResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		license, err := s.repo.FindByKeyForUpdate(ctx, tx, key)
		if err != nil {
			return err
		}
		if license == nil {
			return licensedomain.ErrNotFound
		}
		if license.BoundMac() != macID {
			return licensedomain.ErrDeviceMismatch
		}

		license.Credit += req.Count
		license.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, license); err != nil {
			return err
		}

		entry := &activitydomain.ActivityLog{
			ID:        s.genID.Generate(),
			LicenseID: license.ID,
			Action:    activitydomain.ActionRefund,
			CharCount: req.Count,
			Details:   fmt.Sprintf("model=%s, reason=%s", req.Model, req.Reason),
			CreatedAt: s.clock.Now(),
		}
		if err := s.activityRepo.Insert(ctx, tx, entry); err != nil {
			return err
		}

		result = licensedomain.RefundResult{Refunded: req.Count, Credit: license.Credit}
		return nil
	})
	s.observe("refund", err)
	if err != nil {
		return licensedomain.RefundResult{}, err
	}
	if s.metrics != nil {
		s.metrics.AddCreditsMoved("refund", result.Refunded)
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, req licensedomain.ListRequest) ([]licensedomain.License, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) Create(ctx context.Context, req licensedomain.CreateRequest) (*licensedomain.License, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, licensedomain.ErrKeyRequired
	}

	now := s.clock.Now()
	license := &licensedomain.License{
		ID:        s.genID.Generate(),
		Key:       key,
		MacID:     normalizeMac(req.MacID),
		Credit:    req.Credit,
		Active:    req.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, license); err != nil {
		return nil, err
	}
	return license, nil
}

func (s *Service) Update(ctx context.Context, req licensedomain.UpdateRequest) (*licensedomain.License, error) {
	var updated *licensedomain.License
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		license, err := s.repo.FindByID(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if license == nil {
			return licensedomain.ErrNotFound
		}

		if req.Key != nil {
			key := strings.TrimSpace(*req.Key)
			if key == "" {
				return licensedomain.ErrKeyRequired
			}
			license.Key = key
		}
		if req.MacID != nil {
			license.MacID = normalizeMac(req.MacID)
		}
		if req.Credit != nil {
			license.Credit = *req.Credit
		}
		if req.Active != nil {
			license.Active = *req.Active
		}
		license.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, license); err != nil {
			return err
		}
		updated = license
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	license, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if license == nil {
		return licensedomain.ErrNotFound
	}
	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) observe(action string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncOperation(action, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isDomainRejection(err):
		return "rejected"
	default:
		return "error"
	}
}

func isDomainRejection(err error) bool {
	var insufficient *licensedomain.InsufficientCreditError
	switch {
	case errors.Is(err, licensedomain.ErrKeyMacRequired),
		errors.Is(err, licensedomain.ErrNotFound),
		errors.Is(err, licensedomain.ErrInactive),
		errors.Is(err, licensedomain.ErrDeviceMismatch),
		errors.As(err, &insufficient):
		return true
	default:
		return false
	}
}

func normalizeMac(mac *string) *string {
	if mac == nil {
		return nil
	}
	value := strings.TrimSpace(*mac)
	if value == "" {
		return nil
	}
	return &value
}
