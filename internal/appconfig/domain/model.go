// Package domain contains the global application config model and contract.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AppConfig is the singleton row gating client versions and maintenance mode.
type AppConfig struct {
	ID                 snowflake.ID   `gorm:"primaryKey" json:"id"`
	LatestVersion      string         `gorm:"type:text;not null;default:1.0.0" json:"latest_version"`
	ForceUpdate        bool           `gorm:"not null;default:false" json:"force_update"`
	Maintenance        bool           `gorm:"not null;default:false" json:"maintenance"`
	MaintenanceMessage string         `gorm:"type:text" json:"maintenance_message"`
	UpdateDescription  string         `gorm:"type:text" json:"update_description"`
	UpdateLinks        datatypes.JSON `gorm:"type:json" json:"update_links"`
	UpdatedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (AppConfig) TableName() string { return "app_config" }

// Snapshot is the client-facing view of the config row, with update links
// decoded into a list.
type Snapshot struct {
	LatestVersion      string   `json:"latest_version"`
	ForceUpdate        bool     `json:"force_update"`
	Maintenance        bool     `json:"maintenance"`
	MaintenanceMessage string   `json:"maintenance_message"`
	UpdateDescription  string   `json:"update_description"`
	UpdateLinks        []string `json:"update_links"`
}

// UpdateRequest carries partial admin edits; nil fields are left untouched.
type UpdateRequest struct {
	LatestVersion      *string  `json:"latest_version"`
	ForceUpdate        *bool    `json:"force_update"`
	Maintenance        *bool    `json:"maintenance"`
	MaintenanceMessage *string  `json:"maintenance_message"`
	UpdateDescription  *string  `json:"update_description"`
	UpdateLinks        []string `json:"update_links"`
}

type Service interface {
	// Get returns the client-facing snapshot of the singleton row.
	Get(ctx context.Context) (Snapshot, error)
	// GetRaw returns the stored row for the admin surface.
	GetRaw(ctx context.Context) (*AppConfig, error)
	Update(ctx context.Context, req UpdateRequest) error
}
