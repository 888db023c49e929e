// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/silaylearn/silay-api/internal/config"
	"github.com/silaylearn/silay-api/internal/domain"
)

// ErrUserNotFound is returned by writes that target a missing user row.
var ErrUserNotFound = errors.New("user not found")

// Repository defines the interface for persisting chat history and accounts.
type Repository interface {
	// AppendMessage inserts one chat message and returns it with its
	// store-assigned ID and creation time.
	AppendMessage(ctx context.Context, userID int64, role domain.Role, message string) (*domain.ChatMessage, error)

	// RecentMessages returns up to limit messages for a user, newest first.
	RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.ChatMessage, error)

	// ListMessages returns every message for a user in ascending ID order.
	ListMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error)

	// CreateUser inserts a user with an already hashed password.
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)

	// GetUser retrieves a user by ID. Returns nil, nil when absent.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// GetUserByEmail retrieves a user by email. Returns nil, nil when absent.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword replaces a user's password hash.
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	// CreateResetToken stores a password reset token.
	CreateResetToken(ctx context.Context, token *domain.PasswordResetToken) error

	// GetResetToken retrieves a reset token. Returns nil, nil when absent.
	GetResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)

	// ResetPassword updates the password and consumes the token atomically.
	ResetPassword(ctx context.Context, userID int64, token, passwordHash string) error

	// DeleteAccount removes a user's chat history, reset tokens and user row atomically.
	DeleteAccount(ctx context.Context, userID int64) error

	// DeleteExpiredResetTokens removes tokens that expired before now.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Open builds the Repository selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Repository, error) {
	var (
		s   *SQLStore
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err = NewSQLite(cfg.Path)
	case config.DriverPostgres:
		s, err = NewPostgres(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Ensure SQLStore implements Repository.
var _ Repository = (*SQLStore)(nil)
