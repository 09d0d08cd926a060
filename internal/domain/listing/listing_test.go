package listing

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListing(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		seller   string
		item     string
		quantity int
		price    decimal.Decimal
		wantErr  error
		wantItem string
	}{
		{name: "Valid", seller: "uuid-s", item: " diamond_sword ", quantity: 2, price: decimal.NewFromInt(15), wantItem: "DIAMOND_SWORD"},
		{name: "FreeListing", seller: "uuid-s", item: "dirt", quantity: 64, price: decimal.Zero, wantItem: "DIRT"},
		{name: "EmptySeller", seller: " ", item: "dirt", quantity: 1, price: decimal.Zero, wantErr: ErrEmptySeller},
		{name: "EmptyItem", seller: "uuid-s", item: "  ", quantity: 1, price: decimal.Zero, wantErr: ErrEmptyItem},
		{name: "ZeroQuantity", seller: "uuid-s", item: "dirt", quantity: 0, price: decimal.Zero, wantErr: ErrNonPositiveAmount},
		{name: "LongSeller", seller: strings.Repeat("s", 65), item: "dirt", quantity: 1, price: decimal.Zero, wantErr: ErrSellerTooLong},
		{name: "LongItem", seller: "uuid-s", item: strings.Repeat("x", 129), quantity: 1, price: decimal.Zero, wantErr: ErrItemTooLong},
		{name: "NegativePrice", seller: "uuid-s", item: "dirt", quantity: 1, price: decimal.NewFromInt(-1), wantErr: ErrNegativePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewListing(tt.seller, tt.item, tt.quantity, tt.price, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, l)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantItem, l.ItemDescriptor)
			assert.Equal(t, StatusActive, l.Status)
			assert.Nil(t, l.BuyerGameUUID)
			assert.Nil(t, l.SoldAt)
			assert.Equal(t, now, l.CreatedAt)
		})
	}
}

func TestListing_TotalCost(t *testing.T) {
	l := &Listing{Quantity: 5, UnitPrice: decimal.RequireFromString("10.10")}
	assert.Equal(t, "50.5", l.TotalCost().String())
}

func TestListing_MarkSold(t *testing.T) {
	at := time.Now()
	l := &Listing{ID: 9, Status: StatusActive}

	require.NoError(t, l.MarkSold("uuid-b", at))
	assert.False(t, l.IsActive())
	require.NotNil(t, l.BuyerGameUUID)
	assert.Equal(t, "uuid-b", *l.BuyerGameUUID)
	assert.Equal(t, at, *l.SoldAt)

	err := l.MarkSold("uuid-c", at)
	assert.ErrorIs(t, err, ErrAlreadySold{})
	assert.Equal(t, "uuid-b", *l.BuyerGameUUID, "buyer must not change once sold")
}

func TestErrors(t *testing.T) {
	assert.True(t, errors.Is(ErrListingNotFound{ID: 3}, ErrListingNotFound{}))
	assert.False(t, errors.Is(ErrListingNotFound{ID: 3}, ErrListingNotFound{ID: 4}))
	assert.Equal(t, "listing not found: 3", ErrListingNotFound{ID: 3}.Error())
	assert.True(t, errors.Is(ErrAlreadySold{ID: 3}, ErrAlreadySold{ID: 3}))
}
