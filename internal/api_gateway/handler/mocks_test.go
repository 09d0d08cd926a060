package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/api_gateway/service"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/delivery"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEconomyService struct {
	mock.Mock
}

func (m *MockEconomyService) Balance(ctx context.Context, key string) (*account.Account, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockEconomyService) BalanceByGameUUID(ctx context.Context, gameUUID string) (decimal.Decimal, error) {
	args := m.Called(ctx, gameUUID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockEconomyService) Transfer(ctx context.Context, fromKey, toKey string, amount decimal.Decimal) (*economy.TransferResult, error) {
	args := m.Called(ctx, fromKey, toKey, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*economy.TransferResult), args.Error(1)
}

func (m *MockEconomyService) AdminAdjust(ctx context.Context, key string, delta decimal.Decimal) (*account.Account, error) {
	args := m.Called(ctx, key, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockEconomyService) IssueLinkCode(ctx context.Context, gameUUID string) (*linkcode.LinkCode, error) {
	args := m.Called(ctx, gameUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkcode.LinkCode), args.Error(1)
}

func (m *MockEconomyService) RedeemLinkCode(ctx context.Context, code, key string) (*account.Account, error) {
	args := m.Called(ctx, code, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockEconomyService) CreateListing(ctx context.Context, sellerGameUUID, item string, quantity int, unitPrice decimal.Decimal) (*listing.Listing, error) {
	args := m.Called(ctx, sellerGameUUID, item, quantity, unitPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

func (m *MockEconomyService) ActiveListings(ctx context.Context, limit, offset int) ([]*listing.Listing, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.Listing), args.Error(1)
}

func (m *MockEconomyService) Purchase(ctx context.Context, buyerKey string, listingID int64) (*economy.PurchaseResult, error) {
	args := m.Called(ctx, buyerKey, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*economy.PurchaseResult), args.Error(1)
}

func (m *MockEconomyService) QueueItem(ctx context.Context, gameUUID, item string, quantity int) (*delivery.Item, error) {
	args := m.Called(ctx, gameUUID, item, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Item), args.Error(1)
}

func (m *MockEconomyService) PendingItems(ctx context.Context, gameUUID string) ([]*delivery.Item, error) {
	args := m.Called(ctx, gameUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Item), args.Error(1)
}

func (m *MockEconomyService) ClaimItem(ctx context.Context, id int64) (*delivery.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Item), args.Error(1)
}

type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) GetHistory(ctx context.Context, identityKey string, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, identityKey, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockHistoryService) GetEvent(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

var (
	_ service.EconomyService = (*MockEconomyService)(nil)
	_ service.HistoryService = (*MockHistoryService)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}

	req, _ := http.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeData unmarshals the envelope and then its data field into out
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) Response {
	t.Helper()
	var envelope Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	if out != nil {
		require.NotNil(t, envelope.Data, "'data' field should not be nil")
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return envelope
}

func linkedAccount(key, gameUUID string, balance int64) *account.Account {
	acc := &account.Account{IdentityKey: key, Balance: decimal.NewFromInt(balance)}
	if gameUUID != "" {
		acc.GameUUID = &gameUUID
	}
	return acc
}
