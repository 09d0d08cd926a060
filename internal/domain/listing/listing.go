package listing

import (
	"errors"
	"strings"
	"time"

	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a listing
type Status string

const (
	StatusActive Status = "active"
	StatusSold   Status = "sold"
)

var (
	ErrEmptySeller       = errors.New("seller game uuid cannot be empty")
	ErrSellerTooLong     = errors.New("seller game uuid is too long")
	ErrItemTooLong       = errors.New("item descriptor is too long")
	ErrEmptyItem         = errors.New("item descriptor cannot be empty")
	ErrNonPositiveAmount = errors.New("quantity must be positive")
	ErrNegativePrice     = errors.New("unit price cannot be negative")
)

// Listing is a sell order on the marketplace. It moves from active to sold exactly once.
type Listing struct {
	ID             int64           `json:"id"`
	SellerGameUUID string          `json:"seller_game_uuid"`
	ItemDescriptor string          `json:"item_descriptor"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Status         Status          `json:"status"`
	BuyerGameUUID  *string         `json:"buyer_game_uuid,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	SoldAt         *time.Time      `json:"sold_at,omitempty"`
}

// NewListing validates and normalizes a sell order. The ID is assigned by the store.
func NewListing(sellerGameUUID, item string, quantity int, unitPrice decimal.Decimal, now time.Time) (*Listing, error) {
	sellerGameUUID = strings.TrimSpace(sellerGameUUID)
	if sellerGameUUID == "" {
		return nil, ErrEmptySeller
	}
	if shared.TooLong(sellerGameUUID, shared.MaxIdentityLength) {
		return nil, ErrSellerTooLong
	}
	item = NormalizeItem(item)
	if item == "" {
		return nil, ErrEmptyItem
	}
	if shared.TooLong(item, shared.MaxItemLength) {
		return nil, ErrItemTooLong
	}
	if quantity <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if unitPrice.IsNegative() {
		return nil, ErrNegativePrice
	}

	return &Listing{
		SellerGameUUID: sellerGameUUID,
		ItemDescriptor: item,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		Status:         StatusActive,
		CreatedAt:      now,
	}, nil
}

// NormalizeItem upper-cases and trims a Minecraft item id such as "diamond_sword"
func NormalizeItem(item string) string {
	return strings.ToUpper(strings.TrimSpace(item))
}

// TotalCost is unit price times quantity
func (l *Listing) TotalCost() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *Listing) IsActive() bool {
	return l.Status == StatusActive
}

// MarkSold records the buyer. Returns ErrAlreadySold when the listing is not active.
func (l *Listing) MarkSold(buyerGameUUID string, at time.Time) error {
	if !l.IsActive() {
		return ErrAlreadySold{ID: l.ID}
	}
	l.Status = StatusSold
	l.BuyerGameUUID = &buyerGameUUID
	l.SoldAt = &at
	return nil
}
