package event_relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mc-economy-bridge/internal/config"
	"github.com/mc-economy-bridge/internal/domain/outbox"
	"github.com/mc-economy-bridge/internal/domain/shared"
)

// Poller drains pending outbox messages through an EventPublisher
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger.With("component", "outbox_poller"),
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls immediately and then on every tick until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil {
			p.logger.Error("Error while relaying pending outbox messages", "error", err)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
		}
	}
}

// Poll relays one batch and reports how many messages were relayed
func (p *Poller) Poll(ctx context.Context) (int, error) {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	relayed := 0
	for _, msg := range messages {
		if ctx.Err() != nil {
			return relayed, ctx.Err()
		}

		err := p.publisher.Publish(ctx, msg)
		if err == nil {
			relayed++
			continue
		}

		logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String())
		if errors.Is(err, ErrUndecodablePayload) {
			// The publisher already parked it
			continue
		}

		logger.Error("Failed to relay outbox message", "current_attempts", msg.Attempts, "error", err)

		if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
			logger.Error("Failed to increment attempts for outbox message", "error", errInc)
			continue
		}

		if msg.Attempts+1 >= p.maxRetryAttempts {
			logger.Warn("Max retry attempts reached, marking outbox message as FAILED_TO_PUBLISH", "attempts_made", msg.Attempts+1)
			if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
				logger.Error("Failed to mark outbox message as FAILED_TO_PUBLISH", "error", errUpdate)
			}
		}
	}
	return relayed, nil
}
