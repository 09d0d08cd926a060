package economy_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mc-economy-bridge/internal/data/memory"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/domain/outbox"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	core  *economy.Core
	store *memory.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: fixedNow}
	f.core = economy.NewCore(testLogger(), f.store, economy.Options{
		StartingBalance: decimal.NewFromInt(100),
		LinkCodeTTL:     5 * time.Minute,
		Now:             func() time.Time { return f.now },
	})
	return f
}

// seed creates an account with an explicit balance, optionally linked
func (f *fixture) seed(t *testing.T, key, gameUUID string, balance string) {
	t.Helper()
	var game *string
	if gameUUID != "" {
		game = &gameUUID
	}
	acc, err := account.NewAccount(key, game, dec(balance), f.now)
	require.NoError(t, err)
	created, err := f.store.Stores().Accounts.CreateIfNotExists(context.Background(), acc)
	require.NoError(t, err)
	require.True(t, created)
}

func (f *fixture) balance(t *testing.T, key string) decimal.Decimal {
	t.Helper()
	acc, err := f.store.Stores().Accounts.GetByIdentityKey(context.Background(), key)
	require.NoError(t, err)
	return acc.Balance
}

func (f *fixture) listing(t *testing.T, id int64) *listing.Listing {
	t.Helper()
	l, err := f.store.Stores().Listings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return l
}

func (f *fixture) pendingEvents(t *testing.T) []*outbox.Message {
	t.Helper()
	msgs, err := f.store.Stores().Outbox.GetPending(context.Background(), 1000)
	require.NoError(t, err)
	return msgs
}

func TestNewCore_Defaults(t *testing.T) {
	core := economy.NewCore(testLogger(), memory.NewStore(), economy.Options{})
	assert.True(t, core.StartingBalance().IsZero())

	core = economy.NewCore(testLogger(), memory.NewStore(), economy.Options{StartingBalance: decimal.NewFromInt(-5)})
	assert.True(t, core.StartingBalance().IsZero(), "negative starting balance is floored")
}

func TestErrorClassification(t *testing.T) {
	infra := &economy.InfrastructureError{Op: "transfer", Err: errors.New("connection reset")}

	assert.True(t, economy.IsRetryable(infra))
	assert.True(t, economy.IsRetryable(fmt.Errorf("wrapped: %w", infra)))
	assert.False(t, economy.IsRetryable(economy.ErrInsufficientFunds))
	assert.Contains(t, infra.Error(), "connection reset")
	assert.Equal(t, "connection reset", errors.Unwrap(infra).Error())

	assert.True(t, economy.IsBusinessError(fmt.Errorf("%w: detail", economy.ErrInvalidListing)))
	assert.False(t, economy.IsBusinessError(infra))
}

func TestTransfer_MovesFundsBetweenAccounts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "discord:alice", "", "100")
	f.seed(t, "discord:bob", "", "10")

	res, err := f.core.Transfer(context.Background(), "discord:alice", "discord:bob", dec("40"))

	require.NoError(t, err)
	assert.True(t, dec("60").Equal(res.From.Balance))
	assert.True(t, dec("50").Equal(res.To.Balance))
	assert.True(t, dec("60").Equal(f.balance(t, "discord:alice")))
	assert.True(t, dec("50").Equal(f.balance(t, "discord:bob")))

	events := f.pendingEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventTypeTransfer, events[0].EventType)
	entry, err := events[0].GetLedgerEntry()
	require.NoError(t, err)
	assert.Equal(t, "discord:bob", entry.Counterparty)
	assert.Equal(t, "40", entry.Amount)
	assert.Equal(t, "60", entry.BalanceAfter)
	assert.Equal(t, "50", entry.CounterpartyBalanceAfter)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("AutoCreatesBothAccounts", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.core.Transfer(ctx, "discord:new1", "discord:new2", dec("25.5"))

		require.NoError(t, err)
		assert.Equal(t, "74.5", res.From.Balance.String())
		assert.Equal(t, "125.5", res.To.Balance.String())
	})

	t.Run("ExactBalanceAllowed", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "a", "", "12.34")

		res, err := f.core.Transfer(ctx, "a", "b", dec("12.34"))

		require.NoError(t, err)
		assert.True(t, res.From.Balance.IsZero())
	})

	t.Run("InsufficientFundsWritesNothing", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "a", "", "30")
		f.seed(t, "b", "", "5")

		_, err := f.core.Transfer(ctx, "a", "b", dec("30.01"))

		assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
		assert.False(t, economy.IsRetryable(err))
		assert.True(t, dec("30").Equal(f.balance(t, "a")))
		assert.True(t, dec("5").Equal(f.balance(t, "b")))
		assert.Empty(t, f.pendingEvents(t))
	})

	t.Run("SelfTransferIsNoop", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "a", "", "30")

		res, err := f.core.Transfer(ctx, "a", "a", dec("30"))
		require.NoError(t, err)
		assert.True(t, dec("30").Equal(res.From.Balance))
		assert.True(t, dec("30").Equal(f.balance(t, "a")))
		assert.Empty(t, f.pendingEvents(t))

		_, err = f.core.Transfer(ctx, "a", "a", dec("31"))
		assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.core.Transfer(ctx, "a", "b", decimal.Zero)
		assert.ErrorIs(t, err, economy.ErrInvalidAmount)

		_, err = f.core.Transfer(ctx, "a", "b", dec("-1"))
		assert.ErrorIs(t, err, economy.ErrInvalidAmount)

		_, err = f.core.Transfer(ctx, "", "b", dec("1"))
		assert.ErrorIs(t, err, economy.ErrMissingIdentity)
	})

	t.Run("DecimalDoesNotDrift", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "a", "", "1")
		f.seed(t, "b", "", "0")

		for i := 0; i < 10; i++ {
			_, err := f.core.Transfer(ctx, "a", "b", dec("0.1"))
			require.NoError(t, err)
		}

		assert.True(t, f.balance(t, "a").IsZero())
		assert.Equal(t, "1", f.balance(t, "b").String())
	})
}

func TestTransfer_ConservationUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	keys := []string{"k1", "k2", "k3", "k4"}
	for _, k := range keys {
		f.seed(t, k, "", "50")
	}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := keys[i%len(keys)]
			to := keys[(i*7+1)%len(keys)]
			_, err := f.core.Transfer(context.Background(), from, to, dec("3.33"))
			if err != nil {
				assert.ErrorIs(t, err, economy.ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	total := decimal.Zero
	for _, k := range keys {
		b := f.balance(t, k)
		assert.False(t, b.IsNegative(), "balance of %s went negative", k)
		total = total.Add(b)
	}
	assert.True(t, dec("200").Equal(total), "total %s", total)
}

func TestAdminAdjust_ClampsAtZero(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "discord:1", "", "40")

	acc, err := f.core.AdminAdjust(context.Background(), "discord:1", dec("-150"))

	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
	assert.True(t, f.balance(t, "discord:1").IsZero())

	events := f.pendingEvents(t)
	require.Len(t, events, 1)
	entry, err := events[0].GetLedgerEntry()
	require.NoError(t, err)
	assert.Equal(t, "-40", entry.Amount, "history records the amount actually removed")
}

func TestAdminAdjust(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantAutoCreates", func(t *testing.T) {
		f := newFixture(t)

		acc, err := f.core.AdminAdjust(ctx, "discord:new", dec("15"))

		require.NoError(t, err)
		assert.True(t, dec("115").Equal(acc.Balance))
	})

	t.Run("ZeroDeltaRejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.core.AdminAdjust(ctx, "discord:new", decimal.Zero)
		assert.ErrorIs(t, err, economy.ErrInvalidAmount)
	})
}

func TestBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acc, err := f.core.Balance(ctx, "discord:fresh")
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(acc.Balance))
	assert.False(t, acc.IsLinked())

	again, err := f.core.Balance(ctx, "discord:fresh")
	require.NoError(t, err)
	assert.Equal(t, acc.CreatedAt, again.CreatedAt)

	_, err = f.core.Balance(ctx, "")
	assert.ErrorIs(t, err, economy.ErrMissingIdentity)
}

// countingTx counts the transactions opened against the store
type countingTx struct {
	*memory.Store
	opened int
}

func (c *countingTx) WithinTx(ctx context.Context, fn func(ctx context.Context, s economy.Stores) error) error {
	c.opened++
	return c.Store.WithinTx(ctx, fn)
}

func TestBalance_ExistingAccountIsReadWithoutTransaction(t *testing.T) {
	ctx := context.Background()
	tx := &countingTx{Store: memory.NewStore()}
	core := economy.NewCore(testLogger(), tx, economy.Options{StartingBalance: dec("100")})

	_, err := core.Balance(ctx, "discord:1")
	require.NoError(t, err)
	assert.Equal(t, 1, tx.opened, "first query creates the account")

	for i := 0; i < 3; i++ {
		acc, err := core.Balance(ctx, "discord:1")
		require.NoError(t, err)
		assert.True(t, dec("100").Equal(acc.Balance))
	}
	assert.Equal(t, 1, tx.opened)
}

func TestBalanceByGameUUID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "discord:1", "uuid-a", "77.7")

	bal, err := f.core.BalanceByGameUUID(ctx, "uuid-a")
	require.NoError(t, err)
	assert.Equal(t, "77.7", bal.String())

	bal, err = f.core.BalanceByGameUUID(ctx, "uuid-unknown")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestOversizedInputsAreRejectedWithoutRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	longKey := "discord:" + strings.Repeat("1", 57)
	longUUID := strings.Repeat("u", 65)
	longItem := strings.Repeat("x", 129)

	check := func(t *testing.T, err error, want error) {
		t.Helper()
		assert.ErrorIs(t, err, want)
		assert.True(t, economy.IsBusinessError(err))
		assert.False(t, economy.IsRetryable(err))
	}

	_, err := f.core.Balance(ctx, longKey)
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.Transfer(ctx, "discord:1", longKey, dec("1"))
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.AdminAdjust(ctx, longKey, dec("1"))
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.BalanceByGameUUID(ctx, longUUID)
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.PendingItems(ctx, longUUID)
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.IssueLinkCode(ctx, longUUID)
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.RedeemLinkCode(ctx, "AB12CD", longKey)
	check(t, err, economy.ErrValueTooLong)

	_, err = f.core.CreateListing(ctx, longUUID, "dirt", 1, dec("1"))
	check(t, err, economy.ErrInvalidListing)

	_, err = f.core.CreateListing(ctx, "uuid-s", longItem, 1, dec("1"))
	check(t, err, economy.ErrInvalidListing)

	_, err = f.core.QueueItem(ctx, "uuid-a", longItem, 1)
	check(t, err, economy.ErrInvalidItem)

	_, err = f.core.Purchase(ctx, longKey, 1)
	check(t, err, economy.ErrValueTooLong)

	assert.Empty(t, f.pendingEvents(t))
}

func TestNoNegativeBalances_RandomOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	keys := []string{"a", "b", "c"}
	for i, k := range keys {
		f.seed(t, k, fmt.Sprintf("uuid-%d", i), "20")
	}

	for i := 0; i < 300; i++ {
		amount := decimal.NewFromInt(int64(rng.Intn(40) + 1))
		from := keys[rng.Intn(len(keys))]
		to := keys[rng.Intn(len(keys))]

		switch rng.Intn(4) {
		case 0, 1:
			_, _ = f.core.Transfer(ctx, from, to, amount)
		case 2:
			_, _ = f.core.AdminAdjust(ctx, from, amount.Neg())
		case 3:
			l, err := f.core.CreateListingForAccount(ctx, from, "dirt", rng.Intn(3)+1, amount)
			require.NoError(t, err)
			_, _ = f.core.Purchase(ctx, to, l.ID)
		}

		for _, k := range keys {
			require.False(t, f.balance(t, k).IsNegative(), "step %d: %s negative", i, k)
		}
	}
}
