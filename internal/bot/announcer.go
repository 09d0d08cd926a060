package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/mc-economy-bridge/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Announcer posts market activity from the event stream to a Discord channel
type Announcer struct {
	sender    ChannelSender
	dlq       producers.DeadLetterPublisher
	channelID string
	currency  string
	logger    *slog.Logger
}

func NewAnnouncer(logger *slog.Logger, sender ChannelSender, dlq producers.DeadLetterPublisher, channelID, currency string) *Announcer {
	return &Announcer{
		sender:    sender,
		dlq:       dlq,
		channelID: channelID,
		currency:  currency,
		logger:    logger.With("component", "market_announcer"),
	}
}

// HandleMessage is a consumers.MessageHandler. Returning an error leaves the offset uncommitted.
func (a *Announcer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var entry ledger.Entry
	if err := json.Unmarshal(msg.Value, &entry); err != nil {
		return a.deadLetter(ctx, msg, err)
	}

	embed := a.embedFor(&entry)
	if embed == nil {
		return nil
	}

	if _, err := a.sender.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		a.logger.Error("Failed to post market announcement",
			"event_id", entry.EventID.String(),
			"type", entry.Type,
			"error", err,
		)
		return fmt.Errorf("failed to announce event %s: %w", entry.EventID, err)
	}

	a.logger.Debug("Posted market announcement", "event_id", entry.EventID.String(), "type", entry.Type)
	return nil
}

func (a *Announcer) deadLetter(ctx context.Context, msg kafka.Message, err error) error {
	reason := "Failed to unmarshal economy event: " + err.Error()
	a.logger.Error("Failed to unmarshal economy event", "error", err, "message_key", string(msg.Key))

	if a.dlq != nil {
		if dlqErr := a.dlq.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason); dlqErr != nil {
			a.logger.Error("Failed to publish message to DLQ after unmarshal error",
				"dlq_error", dlqErr,
				"original_error", err,
				"message_key", string(msg.Key),
			)
		} else {
			return nil
		}
	}
	return fmt.Errorf("failed to unmarshal event: %w", err)
}

func (a *Announcer) embedFor(entry *ledger.Entry) *discordgo.MessageEmbed {
	switch entry.Type {
	case shared.EventTypeListingCreated:
		return &discordgo.MessageEmbed{
			Title:       "New listing",
			Description: fmt.Sprintf("%dx **%s** for %s each", entry.Quantity, entry.ItemDescriptor, a.money(entry.Amount)),
			Color:       embedColor,
			Fields:      a.listingField(entry),
			Timestamp:   entry.CreatedAt.UTC().Format(time.RFC3339),
		}
	case shared.EventTypePurchase:
		return &discordgo.MessageEmbed{
			Title:       "Sold",
			Description: fmt.Sprintf("%dx **%s** sold to %s for %s", entry.Quantity, entry.ItemDescriptor, mention(entry.IdentityKey), a.money(entry.Amount)),
			Color:       embedColor,
			Fields:      a.listingField(entry),
			Timestamp:   entry.CreatedAt.UTC().Format(time.RFC3339),
		}
	default:
		return nil
	}
}

func (a *Announcer) listingField(entry *ledger.Entry) []*discordgo.MessageEmbedField {
	if entry.ListingID == nil {
		return nil
	}
	return []*discordgo.MessageEmbedField{{
		Name:   "Listing",
		Value:  fmt.Sprintf("#%d", *entry.ListingID),
		Inline: true,
	}}
}

func (a *Announcer) money(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw + " " + a.currency
	}
	return d.StringFixed(2) + " " + a.currency
}

// mention renders a Discord identity as a ping and anything else verbatim
func mention(identityKey string) string {
	if id, ok := strings.CutPrefix(identityKey, identityPrefix); ok {
		return "<@" + id + ">"
	}
	return identityKey
}
