package economy

import (
	"context"

	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/domain/outbox"
)

// Stores bundles the repositories the core works against
type Stores struct {
	Accounts   account.Repository
	Listings   listing.Repository
	LinkCodes  linkcode.Repository
	Deliveries delivery.Repository
	Outbox     outbox.Repository
}

// TxManager runs a unit of work atomically. If fn returns an error nothing it wrote is kept.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error

	// Stores returns repositories bound outside any transaction, for plain reads
	Stores() Stores
}
