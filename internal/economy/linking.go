package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/shared"
)

// IssueLinkCode creates a short-lived code the player types into the chat /link command
func (c *Core) IssueLinkCode(ctx context.Context, gameUUID string) (*linkcode.LinkCode, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		lc, err := linkcode.NewLinkCode(c.opts.NewCode(), gameUUID, c.opts.LinkCodeTTL, c.opts.Now())
		if errors.Is(err, linkcode.ErrGameUUIDTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrValueTooLong, err)
		}
		if err != nil {
			return nil, ErrMissingIdentity
		}

		err = c.tx.Stores().LinkCodes.Create(ctx, lc)
		if err == nil {
			c.logger.Info("Link code issued", "game_uuid", lc.GameUUID, "expires_at", lc.ExpiresAt)
			return lc, nil
		}
		if !errors.Is(err, linkcode.ErrDuplicateCode) {
			return nil, c.fail("issue_link_code", err)
		}

		c.logger.Warn("Link code collision, retrying", "attempt", attempt)
		lastErr = err
	}

	return nil, c.fail("issue_link_code", fmt.Errorf("no free code after %d attempts: %w", maxCodeAttempts, lastErr))
}

// RedeemLinkCode consumes the code and links its game identity to key.
// An existing account keeps its balance; a new one gets the starting balance.
func (c *Core) RedeemLinkCode(ctx context.Context, code, key string) (*account.Account, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	code = linkcode.Normalize(code)
	if code == "" {
		return nil, ErrInvalidOrUsedCode
	}

	var acc *account.Account
	err := c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		now := c.opts.Now()

		lc, err := s.LinkCodes.LockForUpdate(ctx, code)
		if err != nil {
			if errors.Is(err, linkcode.ErrCodeNotFound) {
				return ErrInvalidOrUsedCode
			}
			return err
		}
		if !lc.IsRedeemable(now) {
			return ErrInvalidOrUsedCode
		}

		owner, err := s.Accounts.GetByGameUUID(ctx, lc.GameUUID)
		if err != nil {
			return err
		}
		if owner != nil && owner.IdentityKey != key {
			return ErrGameIdentityTaken
		}

		acc, err = c.lockOrCreate(ctx, s, key, now)
		if err != nil {
			return err
		}
		if !acc.LinkedTo(lc.GameUUID) {
			if err := acc.LinkGameUUID(lc.GameUUID, now); err != nil {
				return err
			}
			if err := s.Accounts.Update(ctx, acc); err != nil {
				if errors.Is(err, account.ErrDuplicateGameUUID{}) {
					return ErrGameIdentityTaken
				}
				return err
			}
		}

		if err := s.LinkCodes.MarkUsed(ctx, code, key, now); err != nil {
			if errors.Is(err, linkcode.ErrCodeAlreadyUsed) || errors.Is(err, linkcode.ErrCodeNotFound) {
				return ErrInvalidOrUsedCode
			}
			return err
		}

		entry := ledger.NewEntry(shared.EventTypeAccountLinked, key, now)
		entry.GameUUID = lc.GameUUID
		entry.BalanceAfter = acc.Balance.String()
		return recordEvent(ctx, s, entry)
	})
	if err != nil {
		return nil, c.fail("redeem_link_code", err)
	}

	c.logger.Info("Account linked", "identity_key", key, "game_uuid", *acc.GameUUID)
	return acc, nil
}
