package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silaylearn/silay-api/internal/domain"
	"github.com/silaylearn/silay-api/internal/history"
	"github.com/silaylearn/silay-api/internal/store"
)

type fakeStore struct {
	messages  []domain.ChatMessage
	appendErr error
	readErr   error
	calls     int
}

func (f *fakeStore) AppendMessage(_ context.Context, userID int64, role domain.Role, message string) (*domain.ChatMessage, error) {
	f.calls++
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	m := domain.ChatMessage{ID: int64(len(f.messages) + 1), UserID: userID, Role: role, Message: message}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeStore) RecentMessages(_ context.Context, userID int64, limit int) ([]domain.ChatMessage, error) {
	f.calls++
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []domain.ChatMessage
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].UserID == userID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListMessages(_ context.Context, userID int64) ([]domain.ChatMessage, error) {
	f.calls++
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := []domain.ChatMessage{}
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeInvoker struct {
	reply   string
	panic   any
	prompts []string
}

func (f *fakeInvoker) Invoke(_ context.Context, p string) string {
	f.prompts = append(f.prompts, p)
	if f.panic != nil {
		panic(f.panic)
	}
	return f.reply
}

func newService(st history.MessageStore, inv Invoker) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(history.NewAdapter(st, logger), inv, logger)
}

func TestHandleTurnRejectsBadUserIDWithoutSideEffects(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvoker{reply: "unused"}
	svc := newService(st, inv)

	reply, err := svc.HandleTurn(context.Background(), Turn{UserID: "abc", Message: "hi"})
	var cie *ClientInputError
	require.ErrorAs(t, err, &cie)
	require.Equal(t, ReplyBadUserID, reply)

	reply, err = svc.HandleTurn(context.Background(), Turn{Message: "hi"})
	require.Error(t, err)
	require.Equal(t, ReplyMissingUserID, reply)

	require.Zero(t, st.calls)
	require.Empty(t, inv.prompts)
}

func TestHandleTurnFirstMessage(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvoker{reply: "Maayong adlaw!"}
	svc := newService(st, inv)

	reply, err := svc.HandleTurn(context.Background(), Turn{UserID: "42", Message: "Hello"})
	require.NoError(t, err)
	require.Equal(t, "Maayong adlaw!", reply)

	require.Len(t, inv.prompts, 1)
	p := inv.prompts[0]
	require.Contains(t, p, "Lesson: MOOC Lesson")
	require.Contains(t, p, "user: Hello", "the new message is already part of the summary")
	require.Contains(t, p, "User says:\nHello")
	require.Contains(t, p, "Preferred language: en")

	require.Len(t, st.messages, 2)
	require.Equal(t, domain.RoleUser, st.messages[0].Role)
	require.Equal(t, "Hello", st.messages[0].Message)
	require.Equal(t, domain.RoleAssistant, st.messages[1].Role)
	require.Equal(t, "Maayong adlaw!", st.messages[1].Message)
	require.EqualValues(t, 42, st.messages[1].UserID)
}

func TestHandleTurnPersistsErrorReplies(t *testing.T) {
	st := &fakeStore{}
	inv := &fakeInvoker{reply: "Error: unable to reach AI server."}
	svc := newService(st, inv)

	reply, err := svc.HandleTurn(context.Background(), Turn{UserID: float64(5), Message: "q"})
	require.NoError(t, err)
	require.Equal(t, "Error: unable to reach AI server.", reply)
	require.Equal(t, reply, st.messages[len(st.messages)-1].Message)
}

func TestHandleTurnRecoversInvokerPanic(t *testing.T) {
	st := &fakeStore{}
	svc := newService(st, &fakeInvoker{panic: "boom"})

	reply, err := svc.HandleTurn(context.Background(), Turn{UserID: 5, Message: "q"})
	require.NoError(t, err)
	require.Equal(t, "Error contacting AI service: boom", reply)
	require.Equal(t, reply, st.messages[len(st.messages)-1].Message)
}

func TestHandleTurnSurvivesStorageOutage(t *testing.T) {
	st := &fakeStore{appendErr: errors.New("db down"), readErr: errors.New("db down")}
	inv := &fakeInvoker{reply: "still here"}
	svc := newService(st, inv)

	reply, err := svc.HandleTurn(context.Background(), Turn{UserID: 9, Message: "hi", LessonTitle: "Fractions", Language: "hil"})
	require.NoError(t, err)
	require.Equal(t, "still here", reply)

	p := inv.prompts[0]
	require.Contains(t, p, history.HistoryFailure)
	require.Contains(t, p, "Lesson: Fractions")
	require.Contains(t, p, "Preferred language: hil")
}

func TestHistoryPropagatesStorageErrors(t *testing.T) {
	svc := newService(&fakeStore{readErr: errors.New("db down")}, &fakeInvoker{})
	_, err := svc.History(context.Background(), 1)
	require.Error(t, err)
}

func TestConversationAcrossTurnsWithSQLite(t *testing.T) {
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	inv := &fakeInvoker{reply: "ok"}
	svc := newService(repo, inv)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.HandleTurn(ctx, Turn{UserID: "42", Message: "turn"})
		require.NoError(t, err)
	}

	msgs, err := svc.History(ctx, 42)
	require.NoError(t, err)
	require.Len(t, msgs, 14)
	require.Equal(t, domain.RoleUser, msgs[0].Role)
	require.Equal(t, domain.RoleAssistant, msgs[13].Role)

	last := inv.prompts[len(inv.prompts)-1]
	start := strings.Index(last, "--- Student Conversation Summary ---")
	end := strings.Index(last, "--- Role ---")
	require.True(t, start >= 0 && end > start)
	lines := strings.Split(strings.TrimSpace(last[start:end]), "\n")
	require.Len(t, lines, 1+history.WindowSize)
}
