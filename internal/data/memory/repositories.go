package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/domain/outbox"
	"github.com/mc-economy-bridge/internal/domain/shared"
)

// AccountRepository implements account.Repository in memory
type AccountRepository struct {
	access access
}

func (r *AccountRepository) CreateIfNotExists(_ context.Context, acc *account.Account) (bool, error) {
	created := false
	err := r.access(func(st *state) error {
		if _, ok := st.accounts[acc.IdentityKey]; ok {
			return nil
		}
		if acc.GameUUID != nil && gameUUIDTaken(st, *acc.GameUUID, acc.IdentityKey) {
			return account.ErrDuplicateGameUUID{GameUUID: *acc.GameUUID}
		}
		st.putAccount(copyAccount(acc))
		created = true
		return nil
	})
	return created, err
}

func (r *AccountRepository) GetByIdentityKey(_ context.Context, identityKey string) (*account.Account, error) {
	var found *account.Account
	err := r.access(func(st *state) error {
		acc, ok := st.accounts[identityKey]
		if !ok {
			return account.ErrAccountNotFound{IdentityKey: identityKey}
		}
		found = copyAccount(acc)
		return nil
	})
	return found, err
}

func (r *AccountRepository) GetByGameUUID(_ context.Context, gameUUID string) (*account.Account, error) {
	var found *account.Account
	err := r.access(func(st *state) error {
		for _, acc := range st.accounts {
			if acc.LinkedTo(gameUUID) {
				found = copyAccount(acc)
				return nil
			}
		}
		return nil
	})
	return found, err
}

// LockForUpdate is a plain read; transactions are already serialized
func (r *AccountRepository) LockForUpdate(ctx context.Context, identityKey string) (*account.Account, error) {
	return r.GetByIdentityKey(ctx, identityKey)
}

func (r *AccountRepository) Update(_ context.Context, acc *account.Account) error {
	return r.access(func(st *state) error {
		current, ok := st.accounts[acc.IdentityKey]
		if !ok {
			return account.ErrAccountNotFound{IdentityKey: acc.IdentityKey}
		}
		if current.Version != acc.Version-1 {
			return account.ErrConcurrentModification{IdentityKey: acc.IdentityKey}
		}
		if acc.GameUUID != nil && gameUUIDTaken(st, *acc.GameUUID, acc.IdentityKey) {
			return account.ErrDuplicateGameUUID{GameUUID: *acc.GameUUID}
		}
		st.putAccount(copyAccount(acc))
		return nil
	})
}

func gameUUIDTaken(st *state, gameUUID, exceptKey string) bool {
	for key, acc := range st.accounts {
		if key != exceptKey && acc.LinkedTo(gameUUID) {
			return true
		}
	}
	return false
}

// ListingRepository implements listing.Repository in memory
type ListingRepository struct {
	access access
}

func (r *ListingRepository) Create(_ context.Context, l *listing.Listing) error {
	return r.access(func(st *state) error {
		l.ID = st.nextID(&st.nextListingID)
		st.putListing(copyListing(l))
		return nil
	})
}

func (r *ListingRepository) GetByID(_ context.Context, id int64) (*listing.Listing, error) {
	var found *listing.Listing
	err := r.access(func(st *state) error {
		l, ok := st.listings[id]
		if !ok {
			return listing.ErrListingNotFound{ID: id}
		}
		found = copyListing(l)
		return nil
	})
	return found, err
}

func (r *ListingRepository) LockForUpdate(ctx context.Context, id int64) (*listing.Listing, error) {
	return r.GetByID(ctx, id)
}

func (r *ListingRepository) MarkSold(_ context.Context, id int64, buyerGameUUID string, soldAt time.Time) error {
	return r.access(func(st *state) error {
		l, ok := st.listings[id]
		if !ok {
			return listing.ErrListingNotFound{ID: id}
		}
		sold := copyListing(l)
		if err := sold.MarkSold(buyerGameUUID, soldAt); err != nil {
			return err
		}
		st.putListing(sold)
		return nil
	})
}

func (r *ListingRepository) ListActive(_ context.Context, limit, offset int) ([]*listing.Listing, error) {
	if limit <= 0 || offset < 0 {
		return []*listing.Listing{}, nil
	}

	var out []*listing.Listing
	err := r.access(func(st *state) error {
		active := make([]*listing.Listing, 0, len(st.listings))
		for _, l := range st.listings {
			if l.IsActive() {
				active = append(active, l)
			}
		}
		sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

		out = make([]*listing.Listing, 0, limit)
		for i := offset; i < len(active) && len(out) < limit; i++ {
			out = append(out, copyListing(active[i]))
		}
		return nil
	})
	return out, err
}

// LinkCodeRepository implements linkcode.Repository in memory
type LinkCodeRepository struct {
	access access
}

func (r *LinkCodeRepository) Create(_ context.Context, lc *linkcode.LinkCode) error {
	return r.access(func(st *state) error {
		if _, ok := st.codes[lc.Code]; ok {
			return linkcode.ErrDuplicateCode
		}
		st.putCode(copyCode(lc))
		return nil
	})
}

func (r *LinkCodeRepository) LockForUpdate(_ context.Context, code string) (*linkcode.LinkCode, error) {
	var found *linkcode.LinkCode
	err := r.access(func(st *state) error {
		lc, ok := st.codes[code]
		if !ok {
			return linkcode.ErrCodeNotFound
		}
		found = copyCode(lc)
		return nil
	})
	return found, err
}

func (r *LinkCodeRepository) MarkUsed(_ context.Context, code, identityKey string, usedAt time.Time) error {
	return r.access(func(st *state) error {
		lc, ok := st.codes[code]
		if !ok {
			return linkcode.ErrCodeNotFound
		}
		if lc.Used {
			return linkcode.ErrCodeAlreadyUsed
		}
		used := copyCode(lc)
		used.MarkUsed(identityKey, usedAt)
		st.putCode(used)
		return nil
	})
}

func (r *LinkCodeRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var removed int64
	err := r.access(func(st *state) error {
		for code, lc := range st.codes {
			if lc.ExpiresAt.Before(before) {
				st.deleteCode(code)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// DeliveryRepository implements delivery.Repository in memory
type DeliveryRepository struct {
	access access
}

func (r *DeliveryRepository) Enqueue(_ context.Context, item *delivery.Item) error {
	return r.access(func(st *state) error {
		item.ID = st.nextID(&st.nextItemID)
		st.putItem(copyItem(item))
		return nil
	})
}

func (r *DeliveryRepository) ListPending(_ context.Context, gameUUID string) ([]*delivery.Item, error) {
	var out []*delivery.Item
	err := r.access(func(st *state) error {
		out = make([]*delivery.Item, 0)
		for _, item := range st.items {
			if item.GameUUID == gameUUID && item.Status == delivery.StatusPending {
				out = append(out, copyItem(item))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *DeliveryRepository) MarkDelivered(_ context.Context, id int64, deliveredAt time.Time) (*delivery.Item, error) {
	var claimed *delivery.Item
	err := r.access(func(st *state) error {
		item, ok := st.items[id]
		if !ok {
			return delivery.ErrItemNotFound{ID: id}
		}
		done := copyItem(item)
		if done.MarkDelivered(deliveredAt) != nil {
			return delivery.ErrItemNotFound{ID: id}
		}
		st.putItem(done)
		claimed = copyItem(done)
		return nil
	})
	return claimed, err
}

// OutboxRepository implements outbox.Repository in memory
type OutboxRepository struct {
	access access
}

func (r *OutboxRepository) Create(_ context.Context, msg *outbox.Message) error {
	return r.access(func(st *state) error {
		if _, ok := st.eventIDs[msg.EventID]; ok {
			return outbox.ErrDuplicateMessage{EventID: msg.EventID}
		}
		msg.ID = st.nextID(&st.nextMessageID)
		st.insertMessage(copyMessage(msg))
		return nil
	})
}

func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var out []*outbox.Message
	err := r.access(func(st *state) error {
		out = make([]*outbox.Message, 0)
		for _, id := range st.order {
			if len(out) >= limit {
				break
			}
			if msg := st.messages[id]; msg.Status == shared.OutboxStatusPending {
				out = append(out, copyMessage(msg))
			}
		}
		return nil
	})
	return out, err
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.access(func(st *state) error {
		msg, ok := st.messages[id]
		if !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		now := time.Now()
		next := copyMessage(msg)
		next.Status = status
		next.LastAttemptAt = &now
		st.replaceMessage(next)
		return nil
	})
}

func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.access(func(st *state) error {
		msg, ok := st.messages[id]
		if !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		next := copyMessage(msg)
		next.IncrementAttempts()
		st.replaceMessage(next)
		return nil
	})
}

func (r *OutboxRepository) GetByEventID(_ context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	var found *outbox.Message
	err := r.access(func(st *state) error {
		id, ok := st.eventIDs[eventID]
		if !ok {
			return outbox.ErrMessageNotFound{}
		}
		found = copyMessage(st.messages[id])
		return nil
	})
	return found, err
}
