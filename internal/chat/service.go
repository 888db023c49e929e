// Package chat runs one chat turn: persist the learner message, build the
// prompt from recent history, ask the model, persist the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/silaylearn/silay-api/internal/domain"
	"github.com/silaylearn/silay-api/internal/history"
	"github.com/silaylearn/silay-api/internal/prompt"
)

// Invoker produces a reply for a prompt. Implementations report transport
// failures as reply text.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) string
}

// Turn is one inbound chat request.
type Turn struct {
	UserID      any
	Message     string
	LessonTitle string
	Language    string
}

// Service orchestrates chat turns.
type Service struct {
	history *history.Adapter
	invoker Invoker
	logger  *slog.Logger
}

// NewService creates a chat Service.
func NewService(h *history.Adapter, invoker Invoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: h, invoker: invoker, logger: logger}
}

// HandleTurn processes a turn and returns the reply text. The only error is
// a *ClientInputError, returned together with the reply for the client and
// before anything is stored.
func (s *Service) HandleTurn(ctx context.Context, turn Turn) (string, error) {
	userID, err := ParseUserID(turn.UserID)
	if err != nil {
		var reply string
		var cie *ClientInputError
		if errors.As(err, &cie) {
			reply = cie.Reply
		}
		s.logger.Warn("rejected chat turn", "user_id", turn.UserID, "error", err)
		return reply, err
	}

	s.history.AppendMessage(ctx, userID, domain.RoleUser, turn.Message)
	summary := s.history.LoadRecentSummary(ctx, userID).Value

	lesson, language := prompt.Defaults(turn.LessonTitle, turn.Language)
	reply := s.invoke(ctx, prompt.Assemble(lesson, summary, turn.Message, language))

	s.history.AppendMessage(ctx, userID, domain.RoleAssistant, reply)
	s.logger.Info("chat turn completed", "user_id", userID, "reply_len", len(reply))
	return reply, nil
}

func (s *Service) invoke(ctx context.Context, p string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("ai invocation panicked", "panic", r)
			reply = fmt.Sprintf("Error contacting AI service: %v", r)
		}
	}()
	return s.invoker.Invoke(ctx, p)
}

// History returns a user's full transcript, oldest first.
func (s *Service) History(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	return s.history.LoadFullHistory(ctx, userID)
}
