package bot

import (
	"context"
	"io"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockEconomy struct {
	mock.Mock
}

func (m *MockEconomy) Balance(ctx context.Context, key string) (*account.Account, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockEconomy) Transfer(ctx context.Context, fromKey, toKey string, amount decimal.Decimal) (*economy.TransferResult, error) {
	args := m.Called(ctx, fromKey, toKey, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*economy.TransferResult), args.Error(1)
}

func (m *MockEconomy) AdminAdjust(ctx context.Context, key string, delta decimal.Decimal) (*account.Account, error) {
	args := m.Called(ctx, key, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockEconomy) RedeemLinkCode(ctx context.Context, code, key string) (*account.Account, error) {
	args := m.Called(ctx, code, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockEconomy) ActiveListings(ctx context.Context, limit, offset int) ([]*listing.Listing, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*listing.Listing), args.Error(1)
}

func (m *MockEconomy) Purchase(ctx context.Context, buyerKey string, listingID int64) (*economy.PurchaseResult, error) {
	args := m.Called(ctx, buyerKey, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*economy.PurchaseResult), args.Error(1)
}

func (m *MockEconomy) CreateListingForAccount(ctx context.Context, key, item string, quantity int, unitPrice decimal.Decimal) (*listing.Listing, error) {
	args := m.Called(ctx, key, item, quantity, unitPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Listing), args.Error(1)
}

type MockChannelSender struct {
	mock.Mock
}

func (m *MockChannelSender) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, embed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func accountWithBalance(key string, balance string) *account.Account {
	return &account.Account{IdentityKey: key, Balance: decimal.RequireFromString(balance)}
}
