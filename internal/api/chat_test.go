package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/silaylearn/silay-api/internal/chat"
	"github.com/silaylearn/silay-api/internal/domain"
)

type fakeChat struct {
	turns      []chat.Turn
	ctxErr     error
	history    []domain.ChatMessage
	historyErr error
}

func (f *fakeChat) HandleTurn(ctx context.Context, turn chat.Turn) (string, error) {
	f.turns = append(f.turns, turn)
	f.ctxErr = ctx.Err()
	if _, err := chat.ParseUserID(turn.UserID); err != nil {
		var cie *chat.ClientInputError
		errors.As(err, &cie)
		return cie.Reply, err
	}
	return "reply to " + turn.Message, nil
}

func (f *fakeChat) History(context.Context, int64) ([]domain.ChatMessage, error) {
	return f.history, f.historyErr
}

func newChatRouter(svc ChatService) chi.Router {
	r := chi.NewRouter()
	NewChatHandler(svc).RegisterRoutes(r)
	return r
}

func postChat(t *testing.T, r http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestChatCamelCaseUserID(t *testing.T) {
	svc := &fakeChat{}
	rec, out := postChat(t, newChatRouter(svc), `{"userId": 42, "message": "Hello"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "reply to Hello", out["reply"])
	require.Equal(t, json.Number("42"), svc.turns[0].UserID)
	require.Empty(t, svc.turns[0].LessonTitle)
}

func TestChatSnakeCaseWins(t *testing.T) {
	svc := &fakeChat{}
	_, _ = postChat(t, newChatRouter(svc), `{"user_id": "7", "userId": 8, "message": "x", "lesson_title": "Fractions", "lessonTitle": "Other", "language": "hil"}`)

	turn := svc.turns[0]
	require.Equal(t, "7", turn.UserID)
	require.Equal(t, "Fractions", turn.LessonTitle)
	require.Equal(t, "hil", turn.Language)
}

func TestChatFalsyUserIDFallsBackToCamelCase(t *testing.T) {
	svc := &fakeChat{}
	_, _ = postChat(t, newChatRouter(svc), `{"user_id": "", "userId": 8, "message": "x", "lessonTitle": "Other"}`)

	require.Equal(t, json.Number("8"), svc.turns[0].UserID)
	require.Equal(t, "Other", svc.turns[0].LessonTitle)
}

func TestChatBadUserID(t *testing.T) {
	rec, out := postChat(t, newChatRouter(&fakeChat{}), `{"user_id": "abc", "message": "hi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Error: user_id must be an integer.", out["reply"])

	rec, out = postChat(t, newChatRouter(&fakeChat{}), `{"message": "hi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Error: Invalid user_id provided.", out["reply"])
}

func TestChatMalformedBody(t *testing.T) {
	svc := &fakeChat{}
	rec, out := postChat(t, newChatRouter(svc), `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Error: Invalid user_id provided.", out["reply"])
	require.Empty(t, svc.turns)
}

func TestChatIgnoresClientCancellation(t *testing.T) {
	svc := &fakeChat{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id": 1, "message": "m"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	newChatRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, svc.ctxErr)
}

func TestHistory(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := &fakeChat{history: []domain.ChatMessage{
		{ID: 1, UserID: 42, Role: domain.RoleUser, Message: "Hello", CreatedAt: created},
		{ID: 2, UserID: 42, Role: domain.RoleAssistant, Message: "Hi!", CreatedAt: created},
	}}

	rec := httptest.NewRecorder()
	newChatRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[
		{"id":1,"role":"user","message":"Hello","created_at":"2026-03-01T10:00:00Z"},
		{"id":2,"role":"assistant","message":"Hi!","created_at":"2026-03-01T10:00:00Z"}
	]`, rec.Body.String())
}

func TestHistoryEmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	newChatRouter(&fakeChat{history: []domain.ChatMessage{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestHistoryErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	newChatRouter(&fakeChat{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	newChatRouter(&fakeChat{historyErr: errors.New("db down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history/5", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"message":"Failed to retrieve chat history."}`, rec.Body.String())
}
