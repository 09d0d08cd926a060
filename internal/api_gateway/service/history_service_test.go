package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/ledger"
	"github.com/mc-economy-bridge/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLedgerRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) GetByIdentityKey(ctx context.Context, identityKey string, limit, offset int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, identityKey, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) CountByIdentityKey(ctx context.Context, identityKey string) (int64, error) {
	args := m.Called(ctx, identityKey)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHistoryService_GetHistory(t *testing.T) {
	ctx := context.Background()
	entries := []*ledger.Entry{
		ledger.NewEntry(shared.EventTypeTransfer, "discord:1", time.Now()),
		ledger.NewEntry(shared.EventTypePurchase, "discord:1", time.Now()),
	}

	tests := []struct {
		name          string
		page, perPage int
		setupMocks    func(repo *MockLedgerRepository)
		wantCount     int
		wantTotal     int64
		wantErr       bool
	}{
		{
			name: "first page",
			page: 1, perPage: 10,
			setupMocks: func(repo *MockLedgerRepository) {
				repo.On("GetByIdentityKey", mock.Anything, "discord:1", 10, 0).Return(entries, nil).Once()
				repo.On("CountByIdentityKey", mock.Anything, "discord:1").Return(int64(2), nil).Once()
			},
			wantCount: 2,
			wantTotal: 2,
		},
		{
			name: "third page offsets by two pages",
			page: 3, perPage: 5,
			setupMocks: func(repo *MockLedgerRepository) {
				repo.On("GetByIdentityKey", mock.Anything, "discord:1", 5, 10).Return([]*ledger.Entry{}, nil).Once()
				repo.On("CountByIdentityKey", mock.Anything, "discord:1").Return(int64(7), nil).Once()
			},
			wantTotal: 7,
		},
		{
			name: "query failure",
			page: 1, perPage: 10,
			setupMocks: func(repo *MockLedgerRepository) {
				repo.On("GetByIdentityKey", mock.Anything, "discord:1", 10, 0).Return(nil, errors.New("mongo down")).Once()
			},
			wantErr: true,
		},
		{
			name: "count failure",
			page: 1, perPage: 10,
			setupMocks: func(repo *MockLedgerRepository) {
				repo.On("GetByIdentityKey", mock.Anything, "discord:1", 10, 0).Return(entries, nil).Once()
				repo.On("CountByIdentityKey", mock.Anything, "discord:1").Return(int64(0), errors.New("mongo down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockLedgerRepository{}
			tt.setupMocks(repo)

			got, total, err := NewHistoryService(testLogger(), repo).GetHistory(ctx, "discord:1", tt.page, tt.perPage)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, got, tt.wantCount)
				assert.Equal(t, tt.wantTotal, total)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestHistoryService_GetEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := &MockLedgerRepository{}
		entry := ledger.NewEntry(shared.EventTypeAccountLinked, "discord:9", time.Now())
		repo.On("GetByEventID", mock.Anything, entry.EventID).Return(entry, nil).Once()

		got, err := NewHistoryService(testLogger(), repo).GetEvent(ctx, entry.EventID)
		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("not relayed yet", func(t *testing.T) {
		repo := &MockLedgerRepository{}
		id := uuid.New()
		repo.On("GetByEventID", mock.Anything, id).Return(nil, ledger.ErrEntryNotFound{EventID: id}).Once()

		got, err := NewHistoryService(testLogger(), repo).GetEvent(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := &MockLedgerRepository{}
		id := uuid.New()
		repo.On("GetByEventID", mock.Anything, id).Return(nil, errors.New("timeout")).Once()

		_, err := NewHistoryService(testLogger(), repo).GetEvent(ctx, id)
		assert.EqualError(t, err, "timeout")
	})
}
