package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrKeyMacRequired = errors.New("key_mac_required")
	ErrNotFound       = errors.New("license_not_found")
	ErrInactive       = errors.New("license_inactive")
	ErrDeviceMismatch = errors.New("device_mismatch")
	ErrKeyRequired    = errors.New("license_key_required")
)

// InsufficientCreditError rejects a debit while reporting the balance the
// caller still has, so clients can surface it without a second round trip.
type InsufficientCreditError struct {
	Credit int64
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient_credit: %d remaining", e.Credit)
}

// CheckResult is returned by a successful activation check.
type CheckResult struct {
	Credit int64
}

type DebitRequest struct {
	Key   string
	MacID string
	Count int64
	Model string
}

type DebitResult struct {
	Debited int64
	Credit  int64
}

type RefundRequest struct {
	Key    string
	MacID  string
	Count  int64
	Model  string
	Reason string
}

type RefundResult struct {
	Refunded int64
	Credit   int64
}

// ListRequest filters the admin license listing.
type ListRequest struct {
	// Query matches key substrings, case-insensitively.
	Query string
	// MinCredit / MaxCredit bound the balance when non-nil.
	MinCredit *int64
	MaxCredit *int64
	// Active filters on the active flag when non-nil.
	Active *bool
}

type CreateRequest struct {
	Key    string
	MacID  *string
	Credit int64
	Active bool
}

// UpdateRequest carries partial admin edits; nil fields are left untouched.
type UpdateRequest struct {
	ID     snowflake.ID
	Key    *string
	MacID  *string
	Credit *int64
	Active *bool
}

// Service is the license activation engine and credit ledger.
//
// Check binds an unbound license to the presented device on first use and
// verifies the binding afterwards. Debit and Refund mutate the credit balance
// under the device-binding precondition and append one activity row per
// operation, committed atomically with the balance change.
type Service interface {
	Check(ctx context.Context, key, macID string) (CheckResult, error)
	Debit(ctx context.Context, req DebitRequest) (DebitResult, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)

	List(ctx context.Context, req ListRequest) ([]License, error)
	Create(ctx context.Context, req CreateRequest) (*License, error)
	Update(ctx context.Context, req UpdateRequest) (*License, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
