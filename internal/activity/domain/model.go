// Package domain contains the append-only activity log model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ActionDebit  = "debit"
	ActionRefund = "refund"
)

// ActivityLog captures one debit or refund against a license. Rows are never
// updated or deleted by the ledger.
type ActivityLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	LicenseID snowflake.ID `gorm:"not null;index" json:"license_id"`
	Action    string       `gorm:"type:text;not null;index" json:"action"`
	CharCount int64        `gorm:"not null;default:0" json:"char_count"`
	Details   string       `gorm:"type:text" json:"details"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ActivityLog) TableName() string { return "activity_logs" }
