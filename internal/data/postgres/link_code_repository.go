package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

// LinkCodeRepository implements the linkcode.Repository interface for PostgreSQL
type LinkCodeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewLinkCodeRepository(logger *slog.Logger, querier persistence.Querier) *LinkCodeRepository {
	return &LinkCodeRepository{
		querier: querier,
		logger:  logger,
	}
}

func (r *LinkCodeRepository) Create(ctx context.Context, lc *linkcode.LinkCode) error {
	query := `
		INSERT INTO link_codes (code, game_uuid, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query, lc.Code, lc.GameUUID, lc.ExpiresAt, lc.Used, lc.CreatedAt)
	if err != nil {
		if persistence.IsUniqueViolation(err, "") {
			return linkcode.ErrDuplicateCode
		}
		r.logger.Error("Failed to create link code", "game_uuid", lc.GameUUID, "error", err)
		return fmt.Errorf("failed to create link code: %w", err)
	}

	return nil
}

// LockForUpdate locks the code row for the duration of the redemption
func (r *LinkCodeRepository) LockForUpdate(ctx context.Context, code string) (*linkcode.LinkCode, error) {
	query := `
		SELECT code, game_uuid, expires_at, used, used_by, used_at, created_at
		FROM link_codes
		WHERE code = $1
		FOR UPDATE
	`

	var lc linkcode.LinkCode
	err := r.querier.QueryRow(ctx, query, code).Scan(
		&lc.Code,
		&lc.GameUUID,
		&lc.ExpiresAt,
		&lc.Used,
		&lc.UsedBy,
		&lc.UsedAt,
		&lc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, linkcode.ErrCodeNotFound
		}
		r.logger.Error("Failed to lock link code", "error", err)
		return nil, fmt.Errorf("failed to lock link code: %w", err)
	}

	return &lc, nil
}

// MarkUsed consumes the code; the used = false guard makes a second consumption a no-op
func (r *LinkCodeRepository) MarkUsed(ctx context.Context, code, identityKey string, usedAt time.Time) error {
	query := `
		UPDATE link_codes
		SET used = TRUE, used_by = $1, used_at = $2
		WHERE code = $3 AND used = FALSE
	`

	result, err := r.querier.Exec(ctx, query, identityKey, usedAt, code)
	if err != nil {
		r.logger.Error("Failed to mark link code used", "error", err)
		return fmt.Errorf("failed to mark link code used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return linkcode.ErrCodeAlreadyUsed
	}

	return nil
}

func (r *LinkCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM link_codes WHERE expires_at < $1`

	result, err := r.querier.Exec(ctx, query, before)
	if err != nil {
		r.logger.Error("Failed to delete expired link codes", "before", before, "error", err)
		return 0, fmt.Errorf("failed to delete expired link codes: %w", err)
	}

	return result.RowsAffected(), nil
}
