package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Entry is one committed economy event as kept in the history store.
// Decimal values are carried as strings so they survive bson and json unchanged.
type Entry struct {
	EventID                  uuid.UUID        `json:"event_id" bson:"event_id"`
	Type                     shared.EventType `json:"type" bson:"type"`
	IdentityKey              string           `json:"identity_key" bson:"identity_key"`
	Counterparty             string           `json:"counterparty,omitempty" bson:"counterparty,omitempty"`
	GameUUID                 string           `json:"game_uuid,omitempty" bson:"game_uuid,omitempty"`
	ListingID                *int64           `json:"listing_id,omitempty" bson:"listing_id,omitempty"`
	ItemDescriptor           string           `json:"item_descriptor,omitempty" bson:"item_descriptor,omitempty"`
	Quantity                 int              `json:"quantity,omitempty" bson:"quantity,omitempty"`
	Amount                   string           `json:"amount,omitempty" bson:"amount,omitempty"`
	BalanceAfter             string           `json:"balance_after,omitempty" bson:"balance_after,omitempty"`
	CounterpartyBalanceAfter string           `json:"counterparty_balance_after,omitempty" bson:"counterparty_balance_after,omitempty"`
	CreatedAt                time.Time        `json:"created_at" bson:"created_at"`
	RecordedAt               *time.Time       `json:"recorded_at,omitempty" bson:"recorded_at,omitempty"`
}

func NewEntry(eventType shared.EventType, identityKey string, now time.Time) *Entry {
	return &Entry{
		EventID:     uuid.New(),
		Type:        eventType,
		IdentityKey: identityKey,
		CreatedAt:   now,
	}
}

// WithAmount sets the moved amount and the resulting balance of the acting identity
func (e *Entry) WithAmount(amount, balanceAfter decimal.Decimal) *Entry {
	e.Amount = amount.String()
	e.BalanceAfter = balanceAfter.String()
	return e
}

// WithCounterparty records the other side of a two-party event
func (e *Entry) WithCounterparty(key string, balanceAfter *decimal.Decimal) *Entry {
	e.Counterparty = key
	if balanceAfter != nil {
		e.CounterpartyBalanceAfter = balanceAfter.String()
	}
	return e
}

// WithItem records the listing or delivery an event refers to
func (e *Entry) WithItem(listingID *int64, item string, quantity int) *Entry {
	e.ListingID = listingID
	e.ItemDescriptor = item
	e.Quantity = quantity
	return e
}

// AmountDecimal parses Amount, returning zero when unset
func (e *Entry) AmountDecimal() decimal.Decimal {
	if e.Amount == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}
