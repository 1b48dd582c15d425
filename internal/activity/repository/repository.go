// Package repository implements the activity log store on gorm.
package repository

import (
	"context"
	"errors"

	"github.com/marianauyl-oss/amulet-backend-server/internal/activity/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide constructs the gorm-backed activity repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, entry *domain.ActivityLog) error {
	if db == nil {
		return errors.New("missing_transaction")
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List returns the newest entries first. A non-positive limit returns every
// row, which the backup export relies on.
func (r *repository) List(ctx context.Context, db *gorm.DB, limit int) ([]domain.ActivityLog, error) {
	query := db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var entries []domain.ActivityLog
	err := query.Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
