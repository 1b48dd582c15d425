package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound      = errors.New("api_key_not_found")
	ErrNoActiveKey   = errors.New("no_active_api_key")
	ErrValueRequired = errors.New("api_key_value_required")
)

// Service is the upstream API key rotator.
type Service interface {
	// NextActive returns the first active key in insertion order.
	NextActive(ctx context.Context) (*APIKey, error)
	// Deactivate marks a key inactive by value. Deactivating an already
	// inactive key is a no-op returning the same status.
	Deactivate(ctx context.Context, value string) (*APIKey, error)

	List(ctx context.Context) ([]APIKey, error)
	Create(ctx context.Context, value, status string) (*APIKey, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
