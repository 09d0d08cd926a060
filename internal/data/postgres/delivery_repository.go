package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

// DeliveryRepository implements the delivery.Repository interface over pending_items
type DeliveryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewDeliveryRepository(logger *slog.Logger, querier persistence.Querier) *DeliveryRepository {
	return &DeliveryRepository{
		querier: querier,
		logger:  logger,
	}
}

func (r *DeliveryRepository) Enqueue(ctx context.Context, item *delivery.Item) error {
	query := `
		INSERT INTO pending_items (game_uuid, item, amount, source, listing_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		item.GameUUID,
		item.Item,
		item.Quantity,
		item.Source,
		item.ListingID,
		item.Status,
		item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		r.logger.Error("Failed to enqueue item", "game_uuid", item.GameUUID, "error", err)
		return fmt.Errorf("failed to enqueue item: %w", err)
	}

	return nil
}

func (r *DeliveryRepository) ListPending(ctx context.Context, gameUUID string) ([]*delivery.Item, error) {
	query := `
		SELECT id, game_uuid, item, amount, source, listing_id, status, created_at, delivered_at
		FROM pending_items
		WHERE game_uuid = $1 AND status = $2
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query, gameUUID, delivery.StatusPending)
	if err != nil {
		r.logger.Error("Failed to list pending items", "game_uuid", gameUUID, "error", err)
		return nil, fmt.Errorf("failed to list pending items: %w", err)
	}
	defer rows.Close()

	items := make([]*delivery.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			r.logger.Error("Failed to scan pending item", "error", err)
			return nil, fmt.Errorf("failed to scan pending item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over pending items: %w", err)
	}

	return items, nil
}

// MarkDelivered flips a pending item to delivered and returns it
func (r *DeliveryRepository) MarkDelivered(ctx context.Context, id int64, deliveredAt time.Time) (*delivery.Item, error) {
	query := `
		UPDATE pending_items
		SET status = $1, delivered_at = $2
		WHERE id = $3 AND status = $4
		RETURNING id, game_uuid, item, amount, source, listing_id, status, created_at, delivered_at
	`

	item, err := scanItem(r.querier.QueryRow(ctx, query, delivery.StatusDelivered, deliveredAt, id, delivery.StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, delivery.ErrItemNotFound{ID: id}
		}
		r.logger.Error("Failed to mark item delivered", "id", id, "error", err)
		return nil, fmt.Errorf("failed to mark item delivered: %w", err)
	}

	return item, nil
}

func scanItem(row pgx.Row) (*delivery.Item, error) {
	var item delivery.Item
	err := row.Scan(
		&item.ID,
		&item.GameUUID,
		&item.Item,
		&item.Quantity,
		&item.Source,
		&item.ListingID,
		&item.Status,
		&item.CreatedAt,
		&item.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
