package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/shopspring/decimal"
)

// EconomyService is the set of economy operations exposed over HTTP.
// *economy.Core implements it.
type EconomyService interface {
	// Balance returns the account for an identity, creating it on first query
	Balance(ctx context.Context, key string) (*account.Account, error)

	// BalanceByGameUUID returns zero when no account is linked to the game identity
	BalanceByGameUUID(ctx context.Context, gameUUID string) (decimal.Decimal, error)

	Transfer(ctx context.Context, fromKey, toKey string, amount decimal.Decimal) (*economy.TransferResult, error)
	AdminAdjust(ctx context.Context, key string, delta decimal.Decimal) (*account.Account, error)

	IssueLinkCode(ctx context.Context, gameUUID string) (*linkcode.LinkCode, error)
	RedeemLinkCode(ctx context.Context, code, key string) (*account.Account, error)

	CreateListing(ctx context.Context, sellerGameUUID, item string, quantity int, unitPrice decimal.Decimal) (*listing.Listing, error)
	ActiveListings(ctx context.Context, limit, offset int) ([]*listing.Listing, error)
	Purchase(ctx context.Context, buyerKey string, listingID int64) (*economy.PurchaseResult, error)

	QueueItem(ctx context.Context, gameUUID, item string, quantity int) (*delivery.Item, error)
	PendingItems(ctx context.Context, gameUUID string) ([]*delivery.Item, error)
	ClaimItem(ctx context.Context, id int64) (*delivery.Item, error)
}

// HistoryService reads relayed economy events
type HistoryService interface {
	// GetHistory returns a page of events involving the identity, newest first, and the total count
	GetHistory(ctx context.Context, identityKey string, page, perPage int) ([]*ledger.Entry, int64, error)

	// GetEvent returns nil if the event has not been relayed yet
	GetEvent(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error)
}

var _ EconomyService = (*economy.Core)(nil)
