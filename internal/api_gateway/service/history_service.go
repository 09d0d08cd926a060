package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/ledger"
)

// HistoryServiceImpl serves event history from the ledger repository
type HistoryServiceImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewHistoryService(logger *slog.Logger, ledgerRepo ledger.Repository) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

func (s *HistoryServiceImpl) GetHistory(ctx context.Context, identityKey string, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.ledgerRepo.GetByIdentityKey(ctx, identityKey, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to get event history", "identity_key", identityKey, "error", err)
		return nil, 0, err
	}

	total, err := s.ledgerRepo.CountByIdentityKey(ctx, identityKey)
	if err != nil {
		s.logger.Error("Failed to count event history", "identity_key", identityKey, "error", err)
		return nil, 0, err
	}

	return entries, total, nil
}

func (s *HistoryServiceImpl) GetEvent(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error) {
	entry, err := s.ledgerRepo.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound{}) {
			s.logger.Info("Event not found in history", "event_id", eventID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get event", "event_id", eventID.String(), "error", err)
		return nil, err
	}
	return entry, nil
}

var _ HistoryService = (*HistoryServiceImpl)(nil)
