package account

import (
	"context"
)

// Repository defines account persistence operations
type Repository interface {
	// CreateIfNotExists inserts the account unless the identity key is taken.
	// Returns ErrDuplicateGameUUID if the game identity belongs to another account.
	CreateIfNotExists(ctx context.Context, account *Account) (bool, error)
	GetByIdentityKey(ctx context.Context, identityKey string) (*Account, error)

	// GetByGameUUID returns nil, nil when no account is linked to the game identity
	GetByGameUUID(ctx context.Context, gameUUID string) (*Account, error)

	// LockForUpdate acquires a pessimistic lock for the rest of the transaction
	LockForUpdate(ctx context.Context, identityKey string) (*Account, error)

	// Update writes the account using optimistic locking on Version-1
	Update(ctx context.Context, account *Account) error
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	IdentityKey string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.IdentityKey
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	IdentityKey string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.IdentityKey
}

// Is matches any ErrAccountNotFound when the target carries no identity key
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.IdentityKey == "" || t.IdentityKey == e.IdentityKey
}

// ErrDuplicateGameUUID indicates game identity uniqueness violation
type ErrDuplicateGameUUID struct {
	GameUUID string
}

func (e ErrDuplicateGameUUID) Error() string {
	return "game uuid already linked to another account: " + e.GameUUID
}

// Is matches any ErrDuplicateGameUUID when the target carries no game uuid
func (e ErrDuplicateGameUUID) Is(target error) bool {
	t, ok := target.(ErrDuplicateGameUUID)
	if !ok {
		return false
	}
	return t.GameUUID == "" || t.GameUUID == e.GameUUID
}
