package linkcode

import (
	"context"
	"errors"
	"time"
)

// Repository manages link code persistence
type Repository interface {
	// Create returns ErrDuplicateCode when the code is already taken
	Create(ctx context.Context, code *LinkCode) error
	LockForUpdate(ctx context.Context, code string) (*LinkCode, error)

	// MarkUsed consumes the code only if it is still unused, otherwise ErrCodeAlreadyUsed
	MarkUsed(ctx context.Context, code, identityKey string, usedAt time.Time) error

	// DeleteExpired removes codes that expired before the cutoff and returns how many were removed
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

var (
	ErrCodeNotFound    = errors.New("link code not found")
	ErrCodeAlreadyUsed = errors.New("link code already used")
	ErrDuplicateCode   = errors.New("link code already exists")
)
