package account

import (
	"errors"
	"strings"
	"time"

	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidAmount        = errors.New("amount cannot be negative")
	ErrEmptyIdentityKey     = errors.New("identity key cannot be empty")
	ErrNegativeStartBalance = errors.New("starting balance cannot be negative")
	ErrEmptyGameUUID        = errors.New("game uuid cannot be empty")
	ErrIdentityKeyTooLong   = errors.New("identity key is too long")
	ErrGameUUIDTooLong      = errors.New("game uuid is too long")
)

// Account holds the currency balance of one linked identity.
// Every mutator bumps Version once; repositories compare against Version-1 on write.
type Account struct {
	IdentityKey string          `json:"identity_key"`
	GameUUID    *string         `json:"game_uuid,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	Version     int             `json:"version"` // For optimistic locking
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewAccount creates an account with the configured starting balance
func NewAccount(identityKey string, gameUUID *string, startingBalance decimal.Decimal, now time.Time) (*Account, error) {
	identityKey = strings.TrimSpace(identityKey)
	if identityKey == "" {
		return nil, ErrEmptyIdentityKey
	}
	if shared.TooLong(identityKey, shared.MaxIdentityLength) {
		return nil, ErrIdentityKeyTooLong
	}
	if startingBalance.IsNegative() {
		return nil, ErrNegativeStartBalance
	}
	if gameUUID != nil && strings.TrimSpace(*gameUUID) == "" {
		return nil, ErrEmptyGameUUID
	}
	if gameUUID != nil && shared.TooLong(*gameUUID, shared.MaxIdentityLength) {
		return nil, ErrGameUUIDTooLong
	}

	return &Account{
		IdentityKey: identityKey,
		GameUUID:    gameUUID,
		Balance:     startingBalance,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsLinked reports whether a game identity has been attached
func (a *Account) IsLinked() bool {
	return a.GameUUID != nil && *a.GameUUID != ""
}

// LinkedTo reports whether the account is linked to the given game identity
func (a *Account) LinkedTo(gameUUID string) bool {
	return a.IsLinked() && *a.GameUUID == gameUUID
}

// CanDebit checks if the balance covers the amount
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Credit adds the amount to the balance
func (a *Account) Credit(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	a.touch(now)
	return nil
}

// Debit subtracts the amount from the balance
func (a *Account) Debit(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !a.CanDebit(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	a.touch(now)
	return nil
}

// Adjust applies a signed delta, flooring the result at zero.
// It returns the change that was actually applied.
func (a *Account) Adjust(delta decimal.Decimal, now time.Time) decimal.Decimal {
	before := a.Balance
	after := before.Add(delta)
	if after.IsNegative() {
		after = decimal.Zero
	}

	a.Balance = after
	a.touch(now)
	return after.Sub(before)
}

// LinkGameUUID attaches a game identity, leaving the balance untouched
func (a *Account) LinkGameUUID(gameUUID string, now time.Time) error {
	if strings.TrimSpace(gameUUID) == "" {
		return ErrEmptyGameUUID
	}

	a.GameUUID = &gameUUID
	a.touch(now)
	return nil
}

func (a *Account) touch(now time.Time) {
	a.UpdatedAt = now
	a.Version++
}
