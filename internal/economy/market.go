package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseResult describes a committed sale. Seller is nil when no account
// is linked to the seller's game identity; the proceeds are then not credited.
type PurchaseResult struct {
	Listing   *listing.Listing
	Buyer     *account.Account
	Seller    *account.Account
	TotalCost decimal.Decimal
	Delivery  *delivery.Item
}

// CreateListing puts items from a game identity up for sale
func (c *Core) CreateListing(ctx context.Context, sellerGameUUID, item string, quantity int, unitPrice decimal.Decimal) (*listing.Listing, error) {
	l, err := listing.NewListing(sellerGameUUID, item, quantity, unitPrice, c.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListing, err)
	}

	err = c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		identity := l.SellerGameUUID
		seller, err := s.Accounts.GetByGameUUID(ctx, l.SellerGameUUID)
		if err != nil {
			return err
		}
		if seller != nil {
			identity = seller.IdentityKey
		}
		return c.insertListing(ctx, s, identity, l)
	})
	if err != nil {
		return nil, c.fail("create_listing", err)
	}
	return l, nil
}

// CreateListingForAccount lists items on behalf of a linked chat identity
func (c *Core) CreateListingForAccount(ctx context.Context, key, item string, quantity int, unitPrice decimal.Decimal) (*listing.Listing, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}

	var l *listing.Listing
	err := c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		seller, err := s.Accounts.GetByIdentityKey(ctx, key)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				return ErrAccountNotLinked
			}
			return err
		}
		if !seller.IsLinked() {
			return ErrAccountNotLinked
		}

		l, err = listing.NewListing(*seller.GameUUID, item, quantity, unitPrice, c.opts.Now())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidListing, err)
		}
		return c.insertListing(ctx, s, key, l)
	})
	if err != nil {
		return nil, c.fail("create_listing", err)
	}
	return l, nil
}

func (c *Core) insertListing(ctx context.Context, s Stores, identityKey string, l *listing.Listing) error {
	if err := s.Listings.Create(ctx, l); err != nil {
		return err
	}

	id := l.ID
	entry := ledger.NewEntry(shared.EventTypeListingCreated, identityKey, l.CreatedAt).
		WithItem(&id, l.ItemDescriptor, l.Quantity)
	entry.GameUUID = l.SellerGameUUID
	entry.Amount = l.UnitPrice.String()
	if err := recordEvent(ctx, s, entry); err != nil {
		return err
	}

	c.logger.Info("Listing created",
		"listing_id", l.ID,
		"seller_game_uuid", l.SellerGameUUID,
		"item", l.ItemDescriptor,
		"quantity", l.Quantity,
	)
	return nil
}

// ActiveListings pages through open sell orders in creation order
func (c *Core) ActiveListings(ctx context.Context, limit, offset int) ([]*listing.Listing, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	listings, err := c.tx.Stores().Listings.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, c.fail("active_listings", err)
	}
	return listings, nil
}

// Purchase buys a whole listing. The active to sold transition is the guard:
// of several concurrent buyers exactly one wins, the rest get ErrListingUnavailable.
func (c *Core) Purchase(ctx context.Context, buyerKey string, listingID int64) (*PurchaseResult, error) {
	if err := requireKey(buyerKey); err != nil {
		return nil, err
	}

	var result *PurchaseResult
	err := c.tx.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		now := c.opts.Now()

		l, err := s.Listings.LockForUpdate(ctx, listingID)
		if err != nil {
			if errors.Is(err, listing.ErrListingNotFound{}) {
				return ErrListingNotFound
			}
			return err
		}
		if !l.IsActive() {
			return ErrListingUnavailable
		}
		total := l.TotalCost()

		buyer, err := s.Accounts.GetByIdentityKey(ctx, buyerKey)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				return ErrAccountNotLinked
			}
			return err
		}
		if !buyer.IsLinked() {
			return ErrAccountNotLinked
		}
		if buyer.LinkedTo(l.SellerGameUUID) {
			return ErrSelfPurchase
		}

		seller, err := s.Accounts.GetByGameUUID(ctx, l.SellerGameUUID)
		if err != nil {
			return err
		}

		keys := []string{buyerKey}
		if seller != nil {
			keys = append(keys, seller.IdentityKey)
		}
		locked, err := lockExistingSorted(ctx, s, keys...)
		if err != nil {
			return err
		}
		buyer = locked[buyerKey]
		if seller != nil {
			seller = locked[seller.IdentityKey]
			if !seller.LinkedTo(l.SellerGameUUID) {
				seller = nil
			}
		}
		// the link may have moved between the plain read and the lock
		if !buyer.IsLinked() {
			return ErrAccountNotLinked
		}
		if buyer.LinkedTo(l.SellerGameUUID) {
			return ErrSelfPurchase
		}

		if !buyer.CanDebit(total) {
			return ErrInsufficientFunds
		}
		if err := buyer.Debit(total, now); err != nil {
			return ErrInsufficientFunds
		}
		if err := s.Accounts.Update(ctx, buyer); err != nil {
			return err
		}
		if seller != nil {
			if err := seller.Credit(total, now); err != nil {
				return err
			}
			if err := s.Accounts.Update(ctx, seller); err != nil {
				return err
			}
		}

		buyerGameUUID := *buyer.GameUUID
		if err := s.Listings.MarkSold(ctx, l.ID, buyerGameUUID, now); err != nil {
			if errors.Is(err, listing.ErrAlreadySold{}) {
				return ErrListingUnavailable
			}
			return err
		}
		if err := l.MarkSold(buyerGameUUID, now); err != nil {
			return ErrListingUnavailable
		}

		id := l.ID
		item, err := delivery.NewItem(buyerGameUUID, l.ItemDescriptor, l.Quantity, delivery.SourcePurchase, &id, now)
		if err != nil {
			return err
		}
		if err := s.Deliveries.Enqueue(ctx, item); err != nil {
			return err
		}

		entry := ledger.NewEntry(shared.EventTypePurchase, buyerKey, now).
			WithAmount(total, buyer.Balance).
			WithItem(&id, l.ItemDescriptor, l.Quantity)
		entry.GameUUID = buyerGameUUID
		if seller != nil {
			sellerBalance := seller.Balance
			entry.WithCounterparty(seller.IdentityKey, &sellerBalance)
		}
		if err := recordEvent(ctx, s, entry); err != nil {
			return err
		}

		result = &PurchaseResult{
			Listing:   l,
			Buyer:     buyer,
			Seller:    seller,
			TotalCost: total,
			Delivery:  item,
		}
		return nil
	})
	if err != nil {
		return nil, c.fail("purchase", err)
	}

	if result.Seller == nil {
		c.logger.Warn("Purchase proceeds not credited, seller has no linked account",
			"listing_id", listingID,
			"seller_game_uuid", result.Listing.SellerGameUUID,
			"amount", result.TotalCost.String(),
		)
	}
	c.logger.Info("Listing purchased",
		"listing_id", listingID,
		"buyer", buyerKey,
		"total_cost", result.TotalCost.String(),
	)
	return result, nil
}
