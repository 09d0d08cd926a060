package handler

import (
	"time"

	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// Amounts are accepted as JSON numbers or decimal strings and always returned as strings.

type TransferRequest struct {
	FromKey string          `json:"from_key" binding:"required,max=64"`
	ToKey   string          `json:"to_key" binding:"required,max=64"`
	Amount  decimal.Decimal `json:"amount"`
}

type AdminAdjustRequest struct {
	IdentityKey string          `json:"identity_key" binding:"required,max=64"`
	Delta       decimal.Decimal `json:"delta"`
}

type IssueLinkCodeRequest struct {
	GameUUID string `json:"game_uuid" binding:"required,max=64"`
}

type RedeemLinkCodeRequest struct {
	Code        string `json:"code" binding:"required,max=16"`
	IdentityKey string `json:"identity_key" binding:"required,max=64"`
}

type CreateListingRequest struct {
	SellerGameUUID string          `json:"seller_game_uuid" binding:"required,max=64"`
	Item           string          `json:"item" binding:"required,max=128"`
	Quantity       int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

type PurchaseRequest struct {
	BuyerKey string `json:"buyer_key" binding:"required,max=64"`
}

type GiveItemRequest struct {
	GameUUID string `json:"game_uuid" binding:"required,max=64"`
	Item     string `json:"item" binding:"required,max=128"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page" binding:"min=0,max=100"`
}

type AccountResponse struct {
	IdentityKey string          `json:"identity_key"`
	GameUUID    string          `json:"game_uuid,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type GameBalanceResponse struct {
	GameUUID string          `json:"game_uuid"`
	Balance  decimal.Decimal `json:"balance"`
}

type TransferResponse struct {
	From   AccountResponse `json:"from"`
	To     AccountResponse `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type LinkCodeResponse struct {
	Code      string `json:"code"`
	GameUUID  string `json:"game_uuid"`
	ExpiresAt string `json:"expires_at"`
}

type ListingResponse struct {
	ID             int64           `json:"id"`
	SellerGameUUID string          `json:"seller_game_uuid"`
	Item           string          `json:"item"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"created_at"`
}

type PurchaseResponse struct {
	Listing   ListingResponse   `json:"listing"`
	Buyer     AccountResponse   `json:"buyer"`
	TotalCost decimal.Decimal   `json:"total_cost"`
	Delivery  *DeliveryResponse `json:"delivery,omitempty"`
}

type DeliveryResponse struct {
	ID          int64  `json:"id"`
	GameUUID    string `json:"game_uuid"`
	Item        string `json:"item"`
	Quantity    int    `json:"quantity"`
	Source      string `json:"source"`
	ListingID   *int64 `json:"listing_id,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	DeliveredAt string `json:"delivered_at,omitempty"`
}

// EventResponse is a relayed history entry
type EventResponse struct {
	EventID                  string `json:"event_id"`
	Type                     string `json:"type"`
	IdentityKey              string `json:"identity_key"`
	Counterparty             string `json:"counterparty,omitempty"`
	GameUUID                 string `json:"game_uuid,omitempty"`
	ListingID                *int64 `json:"listing_id,omitempty"`
	Item                     string `json:"item,omitempty"`
	Quantity                 int    `json:"quantity,omitempty"`
	Amount                   string `json:"amount,omitempty"`
	BalanceAfter             string `json:"balance_after,omitempty"`
	CounterpartyBalanceAfter string `json:"counterparty_balance_after,omitempty"`
	CreatedAt                string `json:"created_at"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	res := AccountResponse{
		IdentityKey: acc.IdentityKey,
		Balance:     acc.Balance,
		CreatedAt:   acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.GameUUID != nil {
		res.GameUUID = *acc.GameUUID
	}
	return res
}

func mapListingToResponse(l *listing.Listing) ListingResponse {
	return ListingResponse{
		ID:             l.ID,
		SellerGameUUID: l.SellerGameUUID,
		Item:           l.ItemDescriptor,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		TotalPrice:     l.TotalCost(),
		Status:         string(l.Status),
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
	}
}

func mapDeliveryToResponse(item *delivery.Item) DeliveryResponse {
	res := DeliveryResponse{
		ID:        item.ID,
		GameUUID:  item.GameUUID,
		Item:      item.Item,
		Quantity:  item.Quantity,
		Source:    string(item.Source),
		ListingID: item.ListingID,
		Status:    string(item.Status),
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
	if item.DeliveredAt != nil {
		res.DeliveredAt = item.DeliveredAt.Format(time.RFC3339)
	}
	return res
}

func mapLinkCodeToResponse(lc *linkcode.LinkCode) LinkCodeResponse {
	return LinkCodeResponse{
		Code:      lc.Code,
		GameUUID:  lc.GameUUID,
		ExpiresAt: lc.ExpiresAt.Format(time.RFC3339),
	}
}

func mapEntryToResponse(e *ledger.Entry) EventResponse {
	return EventResponse{
		EventID:                  e.EventID.String(),
		Type:                     string(e.Type),
		IdentityKey:              e.IdentityKey,
		Counterparty:             e.Counterparty,
		GameUUID:                 e.GameUUID,
		ListingID:                e.ListingID,
		Item:                     e.ItemDescriptor,
		Quantity:                 e.Quantity,
		Amount:                   e.Amount,
		BalanceAfter:             e.BalanceAfter,
		CounterpartyBalanceAfter: e.CounterpartyBalanceAfter,
		CreatedAt:                e.CreatedAt.Format(time.RFC3339),
	}
}
