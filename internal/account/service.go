// Package account implements password reset, password change and account
// deletion.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/silaylearn/silay-api/internal/config"
	"github.com/silaylearn/silay-api/internal/domain"
	"github.com/silaylearn/silay-api/internal/store"
)

// Client-facing messages.
const (
	MsgResetSentIfExists = "If an account exists, a password reset link has been sent."
	MsgResetSent         = "Password reset link sent. Check your inbox."
	MsgPasswordUpdated   = "Password updated successfully."
	MsgAccountDeleted    = "Account deleted successfully."
)

// Store is the subset of store.Repository used by the account flows.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	CreateResetToken(ctx context.Context, token *domain.PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	ResetPassword(ctx context.Context, userID int64, token, passwordHash string) error
	DeleteAccount(ctx context.Context, userID int64) error
}

// Mailer delivers the password reset link.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// Service runs the account flows.
type Service struct {
	store       Store
	mailer      Mailer
	cfg         config.AccountConfig
	frontendURL string
	logger      *slog.Logger

	now      func() time.Time
	newToken func() string
	hashCost int

	// deleteLocks prevents concurrent deletion of the same account.
	deleteLocks sync.Map
}

// NewService creates an account Service.
func NewService(st Store, mailer Mailer, cfg config.AccountConfig, frontendURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       st,
		mailer:      mailer,
		cfg:         cfg,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
		now:         time.Now,
		newToken:    uuid.NewString,
		hashCost:    bcrypt.DefaultCost,
	}
}

// ForgotPassword emails a reset link when the address belongs to a user.
// Unknown addresses get the same success response.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("Email is required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", internal("Failed to generate reset link.", err)
	}
	if user == nil {
		s.logger.Info("password reset requested for unknown email")
		return MsgResetSentIfExists, nil
	}

	token := s.newToken()
	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetLink(token)); err != nil {
		s.logger.Error("failed to send reset email", "user_id", user.ID, "error", err)
		return "", internal("Failed to send email.", err)
	}

	err = s.store.CreateResetToken(ctx, &domain.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL),
	})
	if err != nil {
		s.logger.Error("failed to store reset token", "user_id", user.ID, "error", err)
		return "", internal("Failed to generate reset link.", err)
	}

	s.logger.Info("password reset link sent", "user_id", user.ID)
	return MsgResetSent, nil
}

func (s *Service) resetLink(token string) string {
	return s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

// ResetPassword sets a new password using an unexpired reset token and
// consumes the token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" || newPassword == "" {
		return "", invalid("Token and new password are required.")
	}
	if err := s.checkLength(newPassword); err != nil {
		return "", err
	}

	rec, err := s.store.GetResetToken(ctx, token)
	if err != nil {
		return "", internal("Server error.", err)
	}
	if rec == nil || rec.Expired(s.now()) {
		return "", unauthorized("Invalid or expired password reset link.")
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.store.ResetPassword(ctx, rec.UserID, token, hash); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", unauthorized("Invalid or expired password reset link.")
		}
		return "", internal("Server error.", err)
	}

	s.logger.Info("password reset completed", "user_id", rec.UserID)
	return MsgPasswordUpdated, nil
}

// ChangePassword replaces the password of a signed-in user after verifying
// the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, newPassword string) (string, error) {
	if userID == 0 || current == "" || newPassword == "" {
		return "", invalid("Missing required fields.")
	}
	if err := s.checkLength(newPassword); err != nil {
		return "", err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", internal("Server error.", err)
	}
	if user == nil {
		return "", &Error{Kind: KindNotFound, Message: "User not found."}
	}
	if !checkPassword(user.PasswordHash, current) {
		return "", unauthorized("Current password is incorrect.")
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return "", err
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return "", internal("Server error.", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return MsgPasswordUpdated, nil
}

// DeleteAccount removes the user and everything they own once the email and
// password confirm the request.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, email, password string) (string, error) {
	if userID == 0 || email == "" || password == "" {
		return "", invalid("Missing required fields.")
	}

	lock, _ := s.deleteLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	if !mu.TryLock() {
		s.logger.Warn("account deletion already in progress", "user_id", userID)
		return "", &Error{Kind: KindConflict, Message: "Account deletion already in progress."}
	}
	defer func() {
		mu.Unlock()
		s.deleteLocks.Delete(userID)
	}()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", internal("Database error.", err)
	}
	if user == nil || user.Email != email {
		return "", &Error{Kind: KindNotFound, Message: "User not found or ID/email mismatch."}
	}
	if !checkPassword(user.PasswordHash, password) {
		return "", unauthorized("Invalid password confirmation.")
	}

	if err := s.store.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", &Error{Kind: KindNotFound, Message: "User not found or ID/email mismatch."}
		}
		return "", internal("Database error.", err)
	}

	s.logger.Info("account deleted", "user_id", userID)
	return MsgAccountDeleted, nil
}

func (s *Service) checkLength(password string) error {
	if len([]rune(password)) < s.cfg.MinPasswordLength {
		return invalid(fmt.Sprintf("Password must be at least %d characters long.", s.cfg.MinPasswordLength))
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		// bcrypt rejects inputs longer than 72 bytes.
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", invalid("Password must be at most 72 bytes long.")
		}
		return "", internal("Server error.", err)
	}
	return string(hash), nil
}

// checkPassword reports whether password matches the stored bcrypt hash. A
// malformed hash counts as a mismatch.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
