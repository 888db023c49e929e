// Package maintenance runs periodic housekeeping against the store.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/silaylearn/silay-api/internal/metrics"
	"github.com/silaylearn/silay-api/internal/shared"
)

// TokenPurger deletes password reset tokens that expired at or before now.
type TokenPurger interface {
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

const (
	purgeMaxRetries = 3
	purgeBaseDelay  = 100 * time.Millisecond
)

// purgeWithRetry deletes expired tokens with exponential backoff on
// SQLITE_BUSY and Postgres serialization errors.
func purgeWithRetry(ctx context.Context, repo TokenPurger, now time.Time, baseDelay time.Duration) (int64, error) {
	var err error
	for i := 0; i < purgeMaxRetries; i++ {
		var n int64
		n, err = repo.DeleteExpiredResetTokens(ctx, now)
		if err == nil {
			return n, nil
		}
		if !shared.IsConflictError(err) || i == purgeMaxRetries-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms
		slog.Debug("Token cleanup hit a locked database, retrying",
			"attempt", i+1,
			"delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, fmt.Errorf("delete expired reset tokens: %w", err)
}

// StartTokenCleanup runs a background goroutine that removes expired reset
// tokens every interval until ctx is cancelled. The returned channel is
// closed when the goroutine exits.
func StartTokenCleanup(ctx context.Context, repo TokenPurger, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Token cleanup worker started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				cleanupExpiredTokens(ctx, repo, time.Now())
			case <-ctx.Done():
				slog.Info("Token cleanup worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

func cleanupExpiredTokens(ctx context.Context, repo TokenPurger, now time.Time) {
	n, err := purgeWithRetry(ctx, repo, now, purgeBaseDelay)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Token cleanup cancelled", "error", err)
			return
		}
		slog.Error("Token cleanup failed", "error", err)
		return
	}
	if n > 0 {
		metrics.ResetTokensPurged.Add(float64(n))
		slog.Info("Token cleanup removed expired reset tokens", "count", n)
	}
}
