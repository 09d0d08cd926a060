package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mc-economy-bridge/internal/domain/linkcode"
)

// LinkCodeJanitor removes link codes that expired longer than retention ago
type LinkCodeJanitor struct {
	codes     linkcode.Repository
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewLinkCodeJanitor(logger *slog.Logger, codes linkcode.Repository, retention time.Duration) *LinkCodeJanitor {
	return &LinkCodeJanitor{
		codes:     codes,
		retention: retention,
		logger:    logger.With("component", "link_code_janitor"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *LinkCodeJanitor) Name() string {
	return "link_code_cleanup"
}

func (j *LinkCodeJanitor) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)
	removed, err := j.codes.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete link codes expired before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if removed > 0 {
		j.logger.Info("Removed expired link codes", "removed", removed, "cutoff", cutoff)
	} else {
		j.logger.Debug("No expired link codes to remove", "cutoff", cutoff)
	}
	return nil
}

var _ Job = (*LinkCodeJanitor)(nil)
