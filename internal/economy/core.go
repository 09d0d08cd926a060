package economy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/outbox"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	DefaultLinkCodeTTL = 5 * time.Minute
	DefaultPageSize    = 25
	maxCodeAttempts    = 3
)

// DefaultStartingBalance is granted to every newly created account
var DefaultStartingBalance = decimal.NewFromInt(100)

// Options tunes the core. Zero values fall back to defaults.
type Options struct {
	StartingBalance decimal.Decimal
	LinkCodeTTL     time.Duration
	Now             func() time.Time
	NewCode         func() string
}

// Core applies balance, marketplace and linking operations atomically against the stores.
// It holds no state of its own, so any number of instances may share one database.
type Core struct {
	logger *slog.Logger
	tx     TxManager
	opts   Options
}

func NewCore(logger *slog.Logger, txManager TxManager, opts Options) *Core {
	if opts.StartingBalance.IsNegative() {
		opts.StartingBalance = decimal.Zero
	}
	if opts.LinkCodeTTL <= 0 {
		opts.LinkCodeTTL = DefaultLinkCodeTTL
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewCode == nil {
		opts.NewCode = linkcode.GenerateCode
	}

	return &Core{
		logger: logger.With("component", "economy_core"),
		tx:     txManager,
		opts:   opts,
	}
}

// StartingBalance returns the balance new accounts are created with
func (c *Core) StartingBalance() decimal.Decimal {
	return c.opts.StartingBalance
}

// lockOrCreate creates the account with the starting balance when absent, then locks it
func (c *Core) lockOrCreate(ctx context.Context, s Stores, key string, now time.Time) (*account.Account, error) {
	acc, err := account.NewAccount(key, nil, c.opts.StartingBalance, now)
	if err != nil {
		return nil, ErrMissingIdentity
	}

	created, err := s.Accounts.CreateIfNotExists(ctx, acc)
	if err != nil {
		return nil, err
	}
	if created {
		c.logger.Info("Account created", "identity_key", key, "starting_balance", c.opts.StartingBalance.String())
	}

	return s.Accounts.LockForUpdate(ctx, key)
}

// lockOrCreateSorted locks every distinct key in ascending order so that two
// operations touching the same pair can never wait on each other in a cycle
func (c *Core) lockOrCreateSorted(ctx context.Context, s Stores, now time.Time, keys ...string) (map[string]*account.Account, error) {
	locked := make(map[string]*account.Account, len(keys))
	for _, key := range sortedUnique(keys) {
		acc, err := c.lockOrCreate(ctx, s, key, now)
		if err != nil {
			return nil, err
		}
		locked[key] = acc
	}
	return locked, nil
}

// lockExistingSorted locks accounts that must already exist, in ascending key order
func lockExistingSorted(ctx context.Context, s Stores, keys ...string) (map[string]*account.Account, error) {
	locked := make(map[string]*account.Account, len(keys))
	for _, key := range sortedUnique(keys) {
		acc, err := s.Accounts.LockForUpdate(ctx, key)
		if err != nil {
			return nil, err
		}
		locked[key] = acc
	}
	return locked, nil
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// recordEvent appends the event to the outbox inside the running transaction
func recordEvent(ctx context.Context, s Stores, entry *ledger.Entry) error {
	msg, err := outbox.NewMessage(entry)
	if err != nil {
		return err
	}
	return s.Outbox.Create(ctx, msg)
}

// fail passes business errors through and wraps everything else as retryable
func (c *Core) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsBusinessError(err) {
		return err
	}

	c.logger.Error("Economy operation failed", "op", op, "error", err)
	return &InfrastructureError{Op: op, Err: err}
}

func requireKey(key string) error {
	if key == "" {
		return ErrMissingIdentity
	}
	if shared.TooLong(key, shared.MaxIdentityLength) {
		return fmt.Errorf("%w: identity key longer than %d characters", ErrValueTooLong, shared.MaxIdentityLength)
	}
	return nil
}

func requireGameUUID(gameUUID string) error {
	if gameUUID == "" {
		return ErrMissingIdentity
	}
	if shared.TooLong(gameUUID, shared.MaxIdentityLength) {
		return fmt.Errorf("%w: game uuid longer than %d characters", ErrValueTooLong, shared.MaxIdentityLength)
	}
	return nil
}
