package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/silaylearn/silay-api/internal/account"
	"github.com/silaylearn/silay-api/internal/chat"
)

// AccountService is the account flows as seen by HTTP.
type AccountService interface {
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	ChangePassword(ctx context.Context, userID int64, current, newPassword string) (string, error)
	DeleteAccount(ctx context.Context, userID int64, email, password string) (string, error)
}

// AccountHandler handles /api/auth endpoints.
type AccountHandler struct {
	svc AccountService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type forgotPasswordRequest struct {
	Email any `json:"email"`
}

type resetPasswordRequest struct {
	Token       any `json:"token"`
	NewPassword any `json:"newPassword"`
}

type changePasswordRequest struct {
	UserID          any `json:"userId"`
	DBID            any `json:"dbId"`
	CurrentPassword any `json:"currentPassword"`
	NewPassword     any `json:"newPassword"`
}

type deleteAccountRequest struct {
	DBID     any `json:"dbId"`
	Email    any `json:"email"`
	Password any `json:"password"`
}

// ForgotPassword emails a reset link.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	msg, err := h.svc.ForgotPassword(r.Context(), text(req.Email))
	h.respond(w, msg, err)
}

// ResetPassword sets a new password from a reset token.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	msg, err := h.svc.ResetPassword(r.Context(), text(req.Token), text(req.NewPassword))
	h.respond(w, msg, err)
}

// ChangePassword replaces the password after verifying the current one.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	raw := req.UserID
	if chat.Blank(raw) {
		raw = req.DBID
	}
	userID, ok := accountID(w, raw)
	if !ok {
		return
	}
	msg, err := h.svc.ChangePassword(r.Context(), userID, text(req.CurrentPassword), text(req.NewPassword))
	h.respond(w, msg, err)
}

// DeleteAccount removes the account after password confirmation.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	if chat.Blank(req.DBID) || text(req.Email) == "" || text(req.Password) == "" {
		Message(w, http.StatusBadRequest, "Missing required fields.")
		return
	}
	userID, ok := accountID(w, req.DBID)
	if !ok {
		return
	}
	msg, err := h.svc.DeleteAccount(r.Context(), userID, text(req.Email), text(req.Password))
	h.respond(w, msg, err)
}

// accountID coerces a body id the same way chat requests do.
func accountID(w http.ResponseWriter, raw any) (int64, bool) {
	id, err := chat.ParseUserID(raw)
	if err == nil {
		return id, true
	}
	if chat.Blank(raw) {
		Message(w, http.StatusBadRequest, "Missing required fields.")
	} else {
		Message(w, http.StatusBadRequest, "Invalid user ID format.")
	}
	return 0, false
}

func (h *AccountHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		slog.Warn("Invalid account request body", "path", r.URL.Path, "error", err)
		Message(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

func (h *AccountHandler) respond(w http.ResponseWriter, msg string, err error) {
	if err == nil {
		Message(w, http.StatusOK, msg)
		return
	}

	var ae *account.Error
	if !errors.As(err, &ae) {
		slog.Error("Account request failed", "error", err)
		Message(w, http.StatusInternalServerError, "Server error.")
		return
	}
	if ae.Kind == account.KindInternal {
		slog.Error("Account request failed", "error", err)
	}
	Message(w, statusFor(ae.Kind), ae.Message)
}

func statusFor(k account.Kind) int {
	switch k {
	case account.KindInvalid:
		return http.StatusBadRequest
	case account.KindUnauthorized:
		return http.StatusUnauthorized
	case account.KindNotFound:
		return http.StatusNotFound
	case account.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RegisterRoutes registers account routes.
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
		r.Post("/change-password", h.ChangePassword)
		r.Delete("/delete", h.DeleteAccount)
	})
}
