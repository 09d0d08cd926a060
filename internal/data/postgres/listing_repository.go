package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/platform/persistence"
)

const listingColumns = "id, seller_game_uuid, item_type, amount, price, status, buyer_game_uuid, created_at, sold_at"

// ListingRepository implements the listing.Repository interface for PostgreSQL
type ListingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewListingRepository(logger *slog.Logger, querier persistence.Querier) *ListingRepository {
	return &ListingRepository{
		querier: querier,
		logger:  logger,
	}
}

// Create inserts an active listing and assigns its ID
func (r *ListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	query := `
		INSERT INTO marketplace_listings (seller_game_uuid, item_type, amount, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		l.SellerGameUUID,
		l.ItemDescriptor,
		l.Quantity,
		l.UnitPrice,
		l.Status,
		l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		r.logger.Error("Failed to create listing", "seller_game_uuid", l.SellerGameUUID, "error", err)
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM marketplace_listings WHERE id = $1`
	return r.getOne(ctx, query, id, "get listing")
}

// LockForUpdate locks the listing row so concurrent buyers queue behind each other
func (r *ListingRepository) LockForUpdate(ctx context.Context, id int64) (*listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM marketplace_listings WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id, "lock listing for update")
}

func (r *ListingRepository) getOne(ctx context.Context, query string, id int64, op string) (*listing.Listing, error) {
	l, err := scanListing(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, listing.ErrListingNotFound{ID: id}
		}
		r.logger.Error("Failed to "+op, "listing_id", id, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return l, nil
}

// MarkSold is the atomic active to sold transition; zero rows affected means someone else won
func (r *ListingRepository) MarkSold(ctx context.Context, id int64, buyerGameUUID string, soldAt time.Time) error {
	query := `
		UPDATE marketplace_listings
		SET status = $1, buyer_game_uuid = $2, sold_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.querier.Exec(ctx, query, listing.StatusSold, buyerGameUUID, soldAt, id, listing.StatusActive)
	if err != nil {
		r.logger.Error("Failed to mark listing sold", "listing_id", id, "error", err)
		return fmt.Errorf("failed to mark listing sold: %w", err)
	}

	if result.RowsAffected() == 0 {
		return listing.ErrAlreadySold{ID: id}
	}

	return nil
}

// ListActive returns active listings in insertion order
func (r *ListingRepository) ListActive(ctx context.Context, limit, offset int) ([]*listing.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM marketplace_listings
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, listing.StatusActive, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list active listings", "error", err)
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}
	defer rows.Close()

	listings := make([]*listing.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			r.logger.Error("Failed to scan listing", "error", err)
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over listings", "error", err)
		return nil, fmt.Errorf("error iterating over listings: %w", err)
	}

	return listings, nil
}

func scanListing(row pgx.Row) (*listing.Listing, error) {
	var l listing.Listing
	err := row.Scan(
		&l.ID,
		&l.SellerGameUUID,
		&l.ItemDescriptor,
		&l.Quantity,
		&l.UnitPrice,
		&l.Status,
		&l.BuyerGameUUID,
		&l.CreatedAt,
		&l.SoldAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
