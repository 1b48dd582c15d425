// Package domain contains the voice catalogue model and contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidData   = errors.New("invalid_voice_data")
	ErrAlreadyExists = errors.New("voice_already_exists")
	ErrNotFound      = errors.New("voice_not_found")
)

// Voice is one synthesizer voice clients may select.
type Voice struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	VoiceID   string       `gorm:"type:text;not null;uniqueIndex" json:"voice_id"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Voice) TableName() string { return "voices" }

// BulkEntry is one row of a bulk import request.
type BulkEntry struct {
	Name    string `json:"name"`
	VoiceID string `json:"voice_id"`
}

type Service interface {
	// ListActive returns active voices for the client catalogue.
	ListActive(ctx context.Context) ([]Voice, error)

	List(ctx context.Context) ([]Voice, error)
	Create(ctx context.Context, name, voiceID string, active bool) (*Voice, error)
	// BulkAdd imports entries, skipping blanks and duplicates, and reports
	// how many rows were added.
	BulkAdd(ctx context.Context, entries []BulkEntry) (int, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteAll(ctx context.Context) error
}
