package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/mc-economy-bridge/internal/domain/account"
	"github.com/mc-economy-bridge/internal/domain/listing"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/shopspring/decimal"
)

// Economy is the part of the economy core the chat commands use
type Economy interface {
	Balance(ctx context.Context, key string) (*account.Account, error)
	Transfer(ctx context.Context, fromKey, toKey string, amount decimal.Decimal) (*economy.TransferResult, error)
	AdminAdjust(ctx context.Context, key string, delta decimal.Decimal) (*account.Account, error)
	RedeemLinkCode(ctx context.Context, code, key string) (*account.Account, error)
	ActiveListings(ctx context.Context, limit, offset int) ([]*listing.Listing, error)
	Purchase(ctx context.Context, buyerKey string, listingID int64) (*economy.PurchaseResult, error)
	CreateListingForAccount(ctx context.Context, key, item string, quantity int, unitPrice decimal.Decimal) (*listing.Listing, error)
}

// ChannelSender posts embeds to a channel; *discordgo.Session implements it
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var (
	_ Economy       = (*economy.Core)(nil)
	_ ChannelSender = (*discordgo.Session)(nil)
)
