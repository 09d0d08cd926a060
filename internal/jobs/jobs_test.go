package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mc-economy-bridge/internal/data/memory"
	"github.com/mc-economy-bridge/internal/domain/linkcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockLinkCodeRepo struct {
	mock.Mock
}

func (m *MockLinkCodeRepo) Create(ctx context.Context, code *linkcode.LinkCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockLinkCodeRepo) LockForUpdate(ctx context.Context, code string) (*linkcode.LinkCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkcode.LinkCode), args.Error(1)
}

func (m *MockLinkCodeRepo) MarkUsed(ctx context.Context, code, identityKey string, usedAt time.Time) error {
	return m.Called(ctx, code, identityKey, usedAt).Error(0)
}

func (m *MockLinkCodeRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func TestLinkCodeJanitor_Run(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes codes past retention", func(t *testing.T) {
		repo := &MockLinkCodeRepo{}
		repo.On("DeleteExpired", mock.Anything, now.Add(-time.Hour)).Return(int64(4), nil).Once()

		janitor := NewLinkCodeJanitor(testLogger(), repo, time.Hour)
		janitor.now = func() time.Time { return now }

		require.NoError(t, janitor.Run(context.Background()))
		repo.AssertExpectations(t)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		repo := &MockLinkCodeRepo{}
		repo.On("DeleteExpired", mock.Anything, mock.Anything).Return(int64(0), errors.New("db gone")).Once()

		janitor := NewLinkCodeJanitor(testLogger(), repo, time.Hour)

		assert.ErrorContains(t, janitor.Run(context.Background()), "failed to delete link codes")
	})

	t.Run("against the memory store", func(t *testing.T) {
		store := memory.NewStore()
		codes := store.Stores().LinkCodes
		ctx := context.Background()

		stale, err := linkcode.NewLinkCode("STALE1", "uuid-1", time.Minute, now.Add(-3*time.Hour))
		require.NoError(t, err)
		fresh, err := linkcode.NewLinkCode("FRESH1", "uuid-2", time.Minute, now)
		require.NoError(t, err)
		require.NoError(t, codes.Create(ctx, stale))
		require.NoError(t, codes.Create(ctx, fresh))

		janitor := NewLinkCodeJanitor(testLogger(), codes, time.Hour)
		janitor.now = func() time.Time { return now }
		require.NoError(t, janitor.Run(ctx))

		_, err = codes.LockForUpdate(ctx, "STALE1")
		assert.ErrorIs(t, err, linkcode.ErrCodeNotFound)
		_, err = codes.LockForUpdate(ctx, "FRESH1")
		assert.NoError(t, err)
	})
}

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return nil
}

func TestScheduler(t *testing.T) {
	t.Run("rejects a malformed expression", func(t *testing.T) {
		s := NewScheduler(testLogger())
		err := s.Register(context.Background(), "not a schedule", &countingJob{})
		assert.ErrorContains(t, err, "failed to schedule job counting")
	})

	t.Run("runs registered jobs", func(t *testing.T) {
		s := NewScheduler(testLogger())
		job := &countingJob{}
		require.NoError(t, s.Register(context.Background(), "* * * * * *", job))

		s.Start()
		assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
}
