// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository runs either on the pool or inside a transaction handed out by TxManager.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

const accountColumns = "identity_key, game_uuid, balance, version, created_at, updated_at"

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, querier persistence.Querier) *AccountRepository {
	return &AccountRepository{
		querier: querier,
		logger:  logger,
	}
}

// CreateIfNotExists inserts the account unless the identity key already exists.
// A clash on game_uuid is reported as ErrDuplicateGameUUID.
func (r *AccountRepository) CreateIfNotExists(ctx context.Context, acc *account.Account) (bool, error) {
	query := `
		INSERT INTO accounts (identity_key, game_uuid, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identity_key) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query,
		acc.IdentityKey,
		acc.GameUUID,
		acc.Balance,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, "") && acc.GameUUID != nil {
			return false, account.ErrDuplicateGameUUID{GameUUID: *acc.GameUUID}
		}
		r.logger.Error("Failed to create account", "identity_key", acc.IdentityKey, "error", err)
		return false, fmt.Errorf("failed to create account: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// GetByIdentityKey retrieves an account by its identity key
func (r *AccountRepository) GetByIdentityKey(ctx context.Context, identityKey string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE identity_key = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, identityKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{IdentityKey: identityKey}
		}
		r.logger.Error("Failed to get account", "identity_key", identityKey, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByGameUUID retrieves the account linked to a game identity
func (r *AccountRepository) GetByGameUUID(ctx context.Context, gameUUID string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE game_uuid = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, gameUUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No account is linked to this game identity
		}
		r.logger.Error("Failed to get account by game uuid", "game_uuid", gameUUID, "error", err)
		return nil, fmt.Errorf("failed to get account by game uuid: %w", err)
	}

	return acc, nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its current state.
// This should be used within a transaction when strong consistency is required.
func (r *AccountRepository) LockForUpdate(ctx context.Context, identityKey string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE identity_key = $1 FOR UPDATE`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, identityKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{IdentityKey: identityKey}
		}
		r.logger.Error("Failed to lock account for update", "identity_key", identityKey, "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}

// Update writes the computed balance and link, guarded by the version read under lock
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET game_uuid = $1, balance = $2, version = $3, updated_at = $4
		WHERE identity_key = $5 AND version = $6
	`

	result, err := r.querier.Exec(ctx, query,
		acc.GameUUID,
		acc.Balance,
		acc.Version,
		acc.UpdatedAt,
		acc.IdentityKey,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, "") && acc.GameUUID != nil {
			return account.ErrDuplicateGameUUID{GameUUID: *acc.GameUUID}
		}
		r.logger.Error("Failed to update account", "identity_key", acc.IdentityKey, "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{IdentityKey: acc.IdentityKey}
	}

	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.IdentityKey,
		&acc.GameUUID,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
