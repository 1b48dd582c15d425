package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository appends and lists activity rows. Insert accepts the caller's
// transaction handle so the audit row commits atomically with the balance
// mutation it describes.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	List(ctx context.Context, db *gorm.DB, limit int) ([]ActivityLog, error)
}
