package economy

import (
	"context"
	"errors"

	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransferResult carries both balances after a committed transfer
type TransferResult struct {
	From   *account.Account
	To     *account.Account
	Amount decimal.Decimal
}

// Balance returns the account for key, creating it with the starting balance on first query
func (c *Core) Balance(ctx context.Context, key string) (*account.Account, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}

	acc, err := c.tx.Stores().Accounts.GetByIdentityKey(ctx, key)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, account.ErrAccountNotFound{}) {
		return nil, c.fail("balance", err)
	}

	// first touch; creating takes the write path
	err = c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		var err error
		acc, err = c.lockOrCreate(ctx, s, key, c.opts.Now())
		return err
	})
	if err != nil {
		return nil, c.fail("balance", err)
	}
	return acc, nil
}

// BalanceByGameUUID returns the balance linked to a game identity, or zero if none is linked
func (c *Core) BalanceByGameUUID(ctx context.Context, gameUUID string) (decimal.Decimal, error) {
	if err := requireGameUUID(gameUUID); err != nil {
		return decimal.Zero, err
	}

	acc, err := c.tx.Stores().Accounts.GetByGameUUID(ctx, gameUUID)
	if err != nil {
		return decimal.Zero, c.fail("balance_by_game_uuid", err)
	}
	if acc == nil {
		return decimal.Zero, nil
	}
	return acc.Balance, nil
}

// Transfer moves amount from one identity to another. Both accounts are created on first touch.
// A transfer to oneself passes the funds check and changes nothing.
func (c *Core) Transfer(ctx context.Context, fromKey, toKey string, amount decimal.Decimal) (*TransferResult, error) {
	if err := requireKey(fromKey); err != nil {
		return nil, err
	}
	if err := requireKey(toKey); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var result *TransferResult
	err := c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		now := c.opts.Now()
		locked, err := c.lockOrCreateSorted(ctx, s, now, fromKey, toKey)
		if err != nil {
			return err
		}
		from, to := locked[fromKey], locked[toKey]

		if !from.CanDebit(amount) {
			return ErrInsufficientFunds
		}
		if fromKey == toKey {
			result = &TransferResult{From: from, To: to, Amount: amount}
			return nil
		}

		if err := from.Debit(amount, now); err != nil {
			return ErrInsufficientFunds
		}
		if err := to.Credit(amount, now); err != nil {
			return ErrInvalidAmount
		}
		if err := s.Accounts.Update(ctx, from); err != nil {
			return err
		}
		if err := s.Accounts.Update(ctx, to); err != nil {
			return err
		}

		toBalance := to.Balance
		entry := ledger.NewEntry(shared.EventTypeTransfer, fromKey, now).
			WithAmount(amount, from.Balance).
			WithCounterparty(toKey, &toBalance)
		if err := recordEvent(ctx, s, entry); err != nil {
			return err
		}

		result = &TransferResult{From: from, To: to, Amount: amount}
		return nil
	})
	if err != nil {
		return nil, c.fail("transfer", err)
	}

	c.logger.Info("Transfer completed",
		"from", fromKey,
		"to", toKey,
		"amount", amount.String(),
	)
	return result, nil
}

// AdminAdjust adds delta of either sign. The balance is floored at zero when removing more than is held.
func (c *Core) AdminAdjust(ctx context.Context, key string, delta decimal.Decimal) (*account.Account, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	if delta.IsZero() {
		return nil, ErrInvalidAmount
	}

	var acc *account.Account
	err := c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		now := c.opts.Now()
		var err error
		acc, err = c.lockOrCreate(ctx, s, key, now)
		if err != nil {
			return err
		}

		applied := acc.Adjust(delta, now)
		if err := s.Accounts.Update(ctx, acc); err != nil {
			return err
		}

		entry := ledger.NewEntry(shared.EventTypeAdminAdjust, key, now).WithAmount(applied, acc.Balance)
		return recordEvent(ctx, s, entry)
	})
	if err != nil {
		return nil, c.fail("admin_adjust", err)
	}

	c.logger.Info("Balance adjusted by admin",
		"identity_key", key,
		"delta", delta.String(),
		"balance", acc.Balance.String(),
	)
	return acc, nil
}
