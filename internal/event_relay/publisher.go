package event_relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/outbox"
	"github.com/mc-economy-bridge/internal/domain/shared"
)

// ErrUndecodablePayload marks an outbox row whose payload can never be relayed
var ErrUndecodablePayload = errors.New("outbox payload is not a ledger entry")

// EventPublisher relays one committed outbox message
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// EventSink is where relayed events are broadcast
type EventSink interface {
	PublishEvent(ctx context.Context, key string, eventType string, payload []byte) error
}

// Publisher records an event in the history store, broadcasts it, then marks the outbox row processed.
// Every step tolerates being repeated, so a crash between steps only causes a redelivery.
type Publisher struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	sink       EventSink
	logger     *slog.Logger
	now        func() time.Time
}

func NewPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	sink EventSink,
	logger *slog.Logger,
) *Publisher {
	return &Publisher{
		outboxRepo: outboxRepo,
		ledgerRepo: ledgerRepo,
		sink:       sink,
		logger:     logger.With("component", "event_publisher"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (p *Publisher) Publish(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "event_id", message.EventID.String(), "event_type", string(message.EventType))

	entry, err := message.GetLedgerEntry()
	if err != nil {
		logger.Error("Failed to decode ledger entry from outbox payload", "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("Also failed to mark undecodable outbox message", "update_error", updateErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	recordedAt := p.now()
	entry.RecordedAt = &recordedAt

	err = p.ledgerRepo.Create(ctx, entry)
	switch {
	case err == nil:
		logger.Debug("Recorded event in history")
	case errors.Is(err, ledger.ErrDuplicateEntry{EventID: entry.EventID}):
		logger.Info("Event already recorded in history, continuing with broadcast")
	default:
		return fmt.Errorf("failed to record event %s: %w", entry.EventID, err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", entry.EventID, err)
	}
	if err := p.sink.PublishEvent(ctx, message.IdentityKey, string(message.EventType), payload); err != nil {
		return fmt.Errorf("failed to broadcast event %s: %w", entry.EventID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		return fmt.Errorf("event %s relayed, but failed to mark outbox %d as PROCESSED: %w", entry.EventID, message.ID, err)
	}

	logger.Info("Outbox message relayed")
	return nil
}

var _ EventPublisher = (*Publisher)(nil)
