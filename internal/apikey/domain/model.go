// Package domain contains the upstream API key pool model and contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// APIKey is an upstream credential slot handed out to clients one at a time.
// The transition active -> inactive is one-way; there is no reactivation.
type APIKey struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Value     string       `gorm:"column:api_key;type:text;not null;uniqueIndex" json:"api_key"`
	Status    string       `gorm:"type:text;not null;default:active" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }
