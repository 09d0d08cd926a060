package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/shared"
)

// QueueItem owes an item to a player; the server plugin hands it out on next join
func (c *Core) QueueItem(ctx context.Context, gameUUID, item string, quantity int) (*delivery.Item, error) {
	queued, err := delivery.NewItem(gameUUID, item, quantity, delivery.SourceAdminGrant, nil, c.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		if err := s.Deliveries.Enqueue(ctx, queued); err != nil {
			return err
		}

		identity := queued.GameUUID
		owner, err := s.Accounts.GetByGameUUID(ctx, queued.GameUUID)
		if err != nil {
			return err
		}
		if owner != nil {
			identity = owner.IdentityKey
		}

		entry := ledger.NewEntry(shared.EventTypeItemQueued, identity, queued.CreatedAt).
			WithItem(nil, queued.Item, queued.Quantity)
		entry.GameUUID = queued.GameUUID
		return recordEvent(ctx, s, entry)
	})
	if err != nil {
		return nil, c.fail("queue_item", err)
	}

	c.logger.Info("Item queued", "game_uuid", queued.GameUUID, "item", queued.Item, "quantity", queued.Quantity)
	return queued, nil
}

func (c *Core) PendingItems(ctx context.Context, gameUUID string) ([]*delivery.Item, error) {
	if err := requireGameUUID(gameUUID); err != nil {
		return nil, err
	}

	items, err := c.tx.Stores().Deliveries.ListPending(ctx, gameUUID)
	if err != nil {
		return nil, c.fail("pending_items", err)
	}
	return items, nil
}

// ClaimItem marks a pending item as handed out. Claiming twice returns ErrItemNotFound.
func (c *Core) ClaimItem(ctx context.Context, id int64) (*delivery.Item, error) {
	var claimed *delivery.Item
	err := c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		var err error
		claimed, err = s.Deliveries.MarkDelivered(ctx, id, c.opts.Now())
		if errors.Is(err, delivery.ErrItemNotFound{}) {
			return ErrItemNotFound
		}
		return err
	})
	if err != nil {
		return nil, c.fail("claim_item", err)
	}
	return claimed, nil
}
