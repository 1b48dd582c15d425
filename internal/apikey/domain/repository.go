package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FirstWithStatus(ctx context.Context, db *gorm.DB, status string) (*APIKey, error)
	FindByValueForUpdate(ctx context.Context, tx *gorm.DB, value string) (*APIKey, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*APIKey, error)
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	Update(ctx context.Context, db *gorm.DB, key *APIKey) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB) ([]APIKey, error)
}
