package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// TokenPurger deletes refresh tokens that expired or were revoked before
// the given time.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// PurgeTokensArgs is the payload of the periodic refresh token purge.
type PurgeTokensArgs struct{}

func (PurgeTokensArgs) Kind() string { return "refresh_tokens.purge" }

// PurgeTokensWorker removes dead refresh tokens.
type PurgeTokensWorker struct {
	river.WorkerDefaults[PurgeTokensArgs]
	purger TokenPurger
	logger *slog.Logger
	now    func() time.Time
}

func (w *PurgeTokensWorker) Work(ctx context.Context, _ *river.Job[PurgeTokensArgs]) error {
	deleted, err := w.purger.DeleteExpired(ctx, w.now().UTC())
	if err != nil {
		return fmt.Errorf("purging refresh tokens: %w", err)
	}
	if deleted > 0 {
		w.logger.InfoContext(ctx, "purged refresh tokens", "count", deleted)
	}
	return nil
}
