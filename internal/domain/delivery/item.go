package delivery

import (
	"errors"
	"strings"
	"time"

	"github.com/mc-economy-bridge/internal/domain/shared"
)

// Source records why an item is owed to a player
type Source string

const (
	SourceAdminGrant Source = "ADMIN_GRANT"
	SourcePurchase   Source = "PURCHASE"
)

// Status of a pending delivery
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
)

var (
	ErrEmptyGameUUID     = errors.New("game uuid cannot be empty")
	ErrEmptyItem         = errors.New("item cannot be empty")
	ErrGameUUIDTooLong   = errors.New("game uuid is too long")
	ErrItemTooLong       = errors.New("item is too long")
	ErrNonPositiveAmount = errors.New("quantity must be positive")
	ErrAlreadyDelivered  = errors.New("item already delivered")
)

// Item is an in-game item waiting to be handed to a player by the server plugin
type Item struct {
	ID          int64      `json:"id"`
	GameUUID    string     `json:"game_uuid"`
	Item        string     `json:"item"`
	Quantity    int        `json:"quantity"`
	Source      Source     `json:"source"`
	ListingID   *int64     `json:"listing_id,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

func NewItem(gameUUID, item string, quantity int, source Source, listingID *int64, now time.Time) (*Item, error) {
	gameUUID = strings.TrimSpace(gameUUID)
	if gameUUID == "" {
		return nil, ErrEmptyGameUUID
	}
	if shared.TooLong(gameUUID, shared.MaxIdentityLength) {
		return nil, ErrGameUUIDTooLong
	}
	item = strings.ToUpper(strings.TrimSpace(item))
	if item == "" {
		return nil, ErrEmptyItem
	}
	if shared.TooLong(item, shared.MaxItemLength) {
		return nil, ErrItemTooLong
	}
	if quantity <= 0 {
		return nil, ErrNonPositiveAmount
	}

	return &Item{
		GameUUID:  gameUUID,
		Item:      item,
		Quantity:  quantity,
		Source:    source,
		ListingID: listingID,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

func (i *Item) MarkDelivered(at time.Time) error {
	if i.Status == StatusDelivered {
		return ErrAlreadyDelivered
	}
	i.Status = StatusDelivered
	i.DeliveredAt = &at
	return nil
}
