// Package domain contains the license entitlement model and service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// License is a redeemable entitlement bound to at most one device and
// carrying a consumable credit balance.
type License struct {
	ID  snowflake.ID `gorm:"primaryKey" json:"id"`
	Key string       `gorm:"type:text;not null;uniqueIndex" json:"key"`

	// MacID is set exactly once, on the first successful check. Every later
	// operation must present the same value.
	MacID *string `gorm:"type:text" json:"mac_id"`

	Credit int64 `gorm:"not null;default:0" json:"credit"`
	Active bool  `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (License) TableName() string { return "licenses" }

// BoundMac returns the bound device identifier, empty when unbound.
func (l *License) BoundMac() string {
	if l == nil || l.MacID == nil {
		return ""
	}
	return *l.MacID
}
