// Package history adapts the chat message store for the chat pipeline:
// best-effort writes, a degraded-but-never-failing context summary, and a
// strict full-history read.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/silaylearn/silay-api/internal/domain"
	"github.com/silaylearn/silay-api/internal/metrics"
)

// MessageStore is the subset of store.Repository the adapter needs.
type MessageStore interface {
	AppendMessage(ctx context.Context, userID int64, role domain.Role, message string) (*domain.ChatMessage, error)
	RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.ChatMessage, error)
	ListMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error)
}

// Adapter wraps a MessageStore with the chat pipeline's error policy.
type Adapter struct {
	store  MessageStore
	logger *slog.Logger
}

// NewAdapter creates a history adapter.
func NewAdapter(store MessageStore, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: store, logger: logger}
}

// AppendMessage stores one message. Failures are logged and returned in the
// result only; the chat turn carries on without the row.
func (a *Adapter) AppendMessage(ctx context.Context, userID int64, role domain.Role, text string) Result[int64] {
	msg, err := a.store.AppendMessage(ctx, userID, role, text)
	if err != nil {
		a.logger.Error("failed to save chat message", "user_id", userID, "role", role, "error", err)
		metrics.StorageFailures.WithLabelValues("append").Inc()
		return Result[int64]{Err: err}
	}
	return Result[int64]{Value: msg.ID}
}

// LoadRecentSummary renders the last WindowSize messages for the prompt.
// On storage failure the value is HistoryFailure.
func (a *Adapter) LoadRecentSummary(ctx context.Context, userID int64) Result[string] {
	recent, err := a.store.RecentMessages(ctx, userID, WindowSize)
	if err != nil {
		a.logger.Error("failed to load chat summary", "user_id", userID, "error", err)
		metrics.StorageFailures.WithLabelValues("summary").Inc()
		return Result[string]{Value: HistoryFailure, Err: err}
	}
	return Result[string]{Value: Summarize(recent)}
}

// LoadFullHistory returns the whole transcript, oldest first. Unlike the
// summary path, storage errors are returned to the caller.
func (a *Adapter) LoadFullHistory(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	msgs, err := a.store.ListMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load chat history for user %d: %w", userID, err)
	}
	return msgs, nil
}
