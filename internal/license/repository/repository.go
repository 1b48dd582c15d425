// Package repository implements the license store on gorm.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/marianauyl-oss/amulet-backend-server/internal/license/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

// Provide constructs the gorm-backed license repository.
func Provide() domain.Repository {
	return &repository{}
}

// FindByKeyForUpdate loads a license under a row lock. sqlite has no
// SELECT ... FOR UPDATE; its single-writer transactions serialize the
// read-modify-write cycle instead.
func (r *repository) FindByKeyForUpdate(ctx context.Context, tx *gorm.DB, key string) (*domain.License, error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var license domain.License
	err := query.Where("key = ?", key).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &license, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.License, error) {
	var license domain.License
	err := db.WithContext(ctx).Where("id = ?", id).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &license, nil
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, license *domain.License) error {
	return db.WithContext(ctx).Create(license).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, license *domain.License) error {
	return db.WithContext(ctx).Save(license).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.License{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context, db *gorm.DB, req domain.ListRequest) ([]domain.License, error) {
	query := db.WithContext(ctx).Model(&domain.License{})

	if q := strings.TrimSpace(req.Query); q != "" {
		query = query.Where("LOWER(key) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if req.MinCredit != nil {
		query = query.Where("credit >= ?", *req.MinCredit)
	}
	if req.MaxCredit != nil {
		query = query.Where("credit <= ?", *req.MaxCredit)
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}

	var licenses []domain.License
	if err := query.Order("id DESC").Find(&licenses).Error; err != nil {
		return nil, err
	}
	return licenses, nil
}
