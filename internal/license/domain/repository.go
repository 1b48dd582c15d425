package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists licenses. FindByKeyForUpdate must take a row lock when
// the dialect supports one, so concurrent read-modify-write cycles on the
// same license serialize.
type Repository interface {
	FindByKeyForUpdate(ctx context.Context, tx *gorm.DB, key string) (*License, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*License, error)
	Insert(ctx context.Context, db *gorm.DB, license *License) error
	Update(ctx context.Context, db *gorm.DB, license *License) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]License, error)
}
