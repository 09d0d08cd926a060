package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/mc-economy-bridge/internal/economy"
	"github.com/shopspring/decimal"
)

const (
	identityPrefix = "discord:"
	embedColor     = 0x2ecc71
)

// IdentityKey is how a Discord user is known to the economy
func IdentityKey(userID string) string {
	return identityPrefix + userID
}

// Command is a slash command invocation stripped of transport details
type Command struct {
	Name    string
	UserID  string
	IsAdmin bool
	Strings map[string]string
	Ints    map[string]int64
	Users   map[string]string // option name to user id
}

// Reply is sent back to the invoking member only
type Reply struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

func textReply(format string, args ...any) Reply {
	return Reply{Content: fmt.Sprintf(format, args...)}
}

// CommandHandler turns commands into economy calls and formats the outcome
type CommandHandler struct {
	economy  Economy
	logger   *slog.Logger
	currency string
	pageSize int
}

func NewCommandHandler(logger *slog.Logger, eco Economy, currency string, pageSize int) *CommandHandler {
	if pageSize <= 0 {
		pageSize = economy.DefaultPageSize
	}
	return &CommandHandler{
		economy:  eco,
		logger:   logger.With("component", "command_handler"),
		currency: currency,
		pageSize: pageSize,
	}
}

func (h *CommandHandler) Handle(ctx context.Context, cmd Command) Reply {
	logger := h.logger.With("command", cmd.Name, "user_id", cmd.UserID)

	var (
		reply Reply
		err   error
	)
	switch cmd.Name {
	case CommandLink:
		reply, err = h.link(ctx, cmd)
	case CommandBalance:
		reply, err = h.balance(ctx, cmd)
	case CommandPay:
		reply, err = h.pay(ctx, cmd)
	case CommandMarket:
		reply, err = h.market(ctx, cmd)
	case CommandBuy:
		reply, err = h.buy(ctx, cmd)
	case CommandSell:
		reply, err = h.sell(ctx, cmd)
	case CommandGiveCoins:
		reply, err = h.adjust(ctx, cmd, false)
	case CommandTakeCoins:
		reply, err = h.adjust(ctx, cmd, true)
	default:
		logger.Warn("Unknown command")
		return textReply("Unknown command.")
	}

	if err != nil {
		return h.errorReply(logger, err)
	}
	logger.Debug("Command handled")
	return reply
}

func (h *CommandHandler) link(ctx context.Context, cmd Command) (Reply, error) {
	acc, err := h.economy.RedeemLinkCode(ctx, cmd.Strings["code"], IdentityKey(cmd.UserID))
	if err != nil {
		return Reply{}, err
	}
	return textReply("Linked to Minecraft account `%s`. Balance: %s", *acc.GameUUID, h.money(acc.Balance)), nil
}

func (h *CommandHandler) balance(ctx context.Context, cmd Command) (Reply, error) {
	acc, err := h.economy.Balance(ctx, IdentityKey(cmd.UserID))
	if err != nil {
		return Reply{}, err
	}
	return textReply("Your balance: %s", h.money(acc.Balance)), nil
}

func (h *CommandHandler) pay(ctx context.Context, cmd Command) (Reply, error) {
	recipient := cmd.Users["user"]
	if recipient == cmd.UserID {
		return textReply("You cannot pay yourself."), nil
	}
	amount, reply, ok := h.parseAmount(cmd.Strings["amount"])
	if !ok {
		return reply, nil
	}

	result, err := h.economy.Transfer(ctx, IdentityKey(cmd.UserID), IdentityKey(recipient), amount)
	if err != nil {
		return Reply{}, err
	}
	return textReply("Sent %s to <@%s>. Your balance: %s", h.money(result.Amount), recipient, h.money(result.From.Balance)), nil
}

func (h *CommandHandler) market(ctx context.Context, cmd Command) (Reply, error) {
	page := cmd.Ints["page"]
	if page < 1 {
		page = 1
	}

	listings, err := h.economy.ActiveListings(ctx, h.pageSize, int(page-1)*h.pageSize)
	if err != nil {
		return Reply{}, err
	}
	if len(listings) == 0 {
		return textReply("No items for sale on page %d.", page), nil
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Market (page %d)", page),
		Color: embedColor,
	}
	for _, l := range listings {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("#%d %dx %s", l.ID, l.Quantity, l.ItemDescriptor),
			Value: fmt.Sprintf("%s each, %s total", h.money(l.UnitPrice), h.money(l.TotalCost())),
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Buy with /buy id"}
	return Reply{Embed: embed}, nil
}

func (h *CommandHandler) buy(ctx context.Context, cmd Command) (Reply, error) {
	result, err := h.economy.Purchase(ctx, IdentityKey(cmd.UserID), cmd.Ints["id"])
	if err != nil {
		return Reply{}, err
	}
	l := result.Listing
	return textReply("Bought %dx %s for %s. It will be delivered next time you join. Balance: %s",
		l.Quantity, l.ItemDescriptor, h.money(result.TotalCost), h.money(result.Buyer.Balance)), nil
}

func (h *CommandHandler) sell(ctx context.Context, cmd Command) (Reply, error) {
	price, reply, ok := h.parsePrice(cmd.Strings["price"])
	if !ok {
		return reply, nil
	}

	l, err := h.economy.CreateListingForAccount(ctx, IdentityKey(cmd.UserID), cmd.Strings["item"], int(cmd.Ints["amount"]), price)
	if err != nil {
		return Reply{}, err
	}
	return textReply("Listed %dx %s at %s each as #%d.", l.Quantity, l.ItemDescriptor, h.money(l.UnitPrice), l.ID), nil
}

func (h *CommandHandler) adjust(ctx context.Context, cmd Command, take bool) (Reply, error) {
	if !cmd.IsAdmin {
		return textReply("Only administrators can use this command."), nil
	}
	amount, reply, ok := h.parseAmount(cmd.Strings["amount"])
	if !ok {
		return reply, nil
	}
	target := cmd.Users["user"]
	delta := amount
	if take {
		delta = amount.Neg()
	}

	acc, err := h.economy.AdminAdjust(ctx, IdentityKey(target), delta)
	if err != nil {
		return Reply{}, err
	}

	h.logger.Info("Admin adjusted balance", "admin_id", cmd.UserID, "target_id", target, "delta", delta.String())
	return textReply("<@%s> now has %s.", target, h.money(acc.Balance)), nil
}

func (h *CommandHandler) parseAmount(raw string) (decimal.Decimal, Reply, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, textReply("`%s` is not a valid amount.", raw), false
	}
	return amount, Reply{}, true
}

func (h *CommandHandler) parsePrice(raw string) (decimal.Decimal, Reply, bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || price.IsNegative() {
		return decimal.Zero, textReply("`%s` is not a valid price.", raw), false
	}
	return price, Reply{}, true
}

func (h *CommandHandler) money(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + h.currency
}

func (h *CommandHandler) errorReply(logger *slog.Logger, err error) Reply {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		return textReply("You don't have enough %s.", h.currency)
	case errors.Is(err, economy.ErrAccountNotLinked):
		return textReply("Link your Minecraft account first: run /link in game, then /link here with the code.")
	case errors.Is(err, economy.ErrListingNotFound):
		return textReply("That listing does not exist.")
	case errors.Is(err, economy.ErrListingUnavailable):
		return textReply("That listing has already been sold.")
	case errors.Is(err, economy.ErrSelfPurchase):
		return textReply("You cannot buy your own listing.")
	case errors.Is(err, economy.ErrInvalidOrUsedCode):
		return textReply("That code is invalid, expired or already used.")
	case errors.Is(err, economy.ErrGameIdentityTaken):
		return textReply("That Minecraft account is already linked to someone else.")
	case errors.Is(err, economy.ErrInvalidListing), errors.Is(err, economy.ErrInvalidAmount), errors.Is(err, economy.ErrValueTooLong):
		return textReply("Invalid request: %v", err)
	case economy.IsRetryable(err):
		logger.Warn("Economy temporarily unavailable", "error", err)
		return textReply("The economy is busy right now, please try again in a moment.")
	default:
		logger.Error("Command failed", "error", err)
		return textReply("Something went wrong, please try again later.")
	}
}
