package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/silaylearn/silay-api/internal/chat"
	"github.com/silaylearn/silay-api/internal/domain"
)

// ChatService is the chat pipeline as seen by HTTP.
type ChatService interface {
	HandleTurn(ctx context.Context, turn chat.Turn) (string, error)
	History(ctx context.Context, userID int64) ([]domain.ChatMessage, error)
}

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	svc ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// chatRequest accepts both snake_case and camelCase keys.
type chatRequest struct {
	UserID         any  `json:"user_id"`
	UserIDCamel    any  `json:"userId"`
	Message        any  `json:"message"`
	LessonTitle    *any `json:"lesson_title"`
	LessonTitleAlt *any `json:"lessonTitle"`
	Language       any  `json:"language"`
}

func (req chatRequest) turn() chat.Turn {
	userID := req.UserID
	if chat.Blank(userID) {
		userID = req.UserIDCamel
	}

	var lesson string
	switch {
	case req.LessonTitle != nil:
		lesson = text(*req.LessonTitle)
	case req.LessonTitleAlt != nil:
		lesson = text(*req.LessonTitleAlt)
	}

	return chat.Turn{
		UserID:      userID,
		Message:     text(req.Message),
		LessonTitle: lesson,
		Language:    text(req.Language),
	}
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat runs one chat turn.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Invalid chat request body", "error", err)
		JSON(w, http.StatusBadRequest, chatResponse{Reply: chat.ReplyMissingUserID})
		return
	}

	// The turn completes server-side even if the client disconnects.
	ctx := context.WithoutCancel(r.Context())

	reply, err := h.svc.HandleTurn(ctx, req.turn())
	if err != nil {
		JSON(w, http.StatusBadRequest, chatResponse{Reply: reply})
		return
	}
	JSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// History returns a user's full transcript.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID < 0 {
		Message(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	msgs, err := h.svc.History(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to fetch chat history", "user_id", userID, "error", err)
		Message(w, http.StatusInternalServerError, "Failed to retrieve chat history.")
		return
	}
	JSON(w, http.StatusOK, msgs)
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
	r.Get("/api/chat/history/{userID}", h.History)
}
