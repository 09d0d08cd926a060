package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

// DB is what the TxManager needs from a pool
type DB interface {
	persistence.Querier
	persistence.TxBeginner
}

// TxManager binds every repository to one pgx transaction per unit of work.
// Row locks taken with SELECT ... FOR UPDATE are held until commit or rollback.
type TxManager struct {
	db     DB
	logger *slog.Logger
}

func NewTxManager(logger *slog.Logger, db DB) *TxManager {
	return &TxManager{
		db:     db,
		logger: logger.With("component", "postgres_tx_manager"),
	}
}

var _ economy.TxManager = (*TxManager)(nil)

// WithinTx runs fn in one transaction. A value wider than its column is reported
// as ErrValueTooLong since retrying the same input can never succeed.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s economy.Stores) error) error {
	err := persistence.RunInTx(ctx, m.db, func(tx pgx.Tx) error {
		return fn(ctx, m.bind(tx))
	})
	if persistence.IsValueTooLong(err) {
		return fmt.Errorf("%w: %v", economy.ErrValueTooLong, err)
	}
	return err
}

// Stores returns repositories running directly on the pool
func (m *TxManager) Stores() economy.Stores {
	return m.bind(m.db)
}

func (m *TxManager) bind(q persistence.Querier) economy.Stores {
	return economy.Stores{
		Accounts:   NewAccountRepository(m.logger, q),
		Listings:   NewListingRepository(m.logger, q),
		LinkCodes:  NewLinkCodeRepository(m.logger, q),
		Deliveries: NewDeliveryRepository(m.logger, q),
		Outbox:     NewOutboxRepository(m.logger, q),
	}
}
