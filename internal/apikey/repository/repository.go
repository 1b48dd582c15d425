// Package repository implements the API key store on gorm.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/marianauyl-oss/amulet-backend-server/internal/apikey/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

// Provide constructs the gorm-backed API key repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) FirstWithStatus(ctx context.Context, db *gorm.DB, status string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *repository) FindByValueForUpdate(ctx context.Context, tx *gorm.DB, value string) (*domain.APIKey, error) {
	query := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var key domain.APIKey
	err := query.Where("api_key = ?", value).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.APIKey, error) {
	var key domain.APIKey
	err := db.WithContext(ctx).Where("id = ?", id).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Create(key).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Save(key).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.APIKey{}, "id = ?", id).Error
}

func (r *repository) List(ctx context.Context, db *gorm.DB) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	if err := db.WithContext(ctx).Order("id ASC").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
