package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/silaylearn/silay-api/internal/domain"
)

// dialect captures the few differences between the supported SQL engines.
type dialect struct {
	name        string
	numberedArg bool // $1, $2 instead of ?
	schema      []string
}

// rebind rewrites ? placeholders for engines that use numbered arguments.
func (d dialect) rebind(query string) string {
	if !d.numberedArg {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements Repository over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db, dialect: d, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema (%s): %w", s.dialect.name, err)
		}
	}
	return nil
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

// withTx runs fn inside a transaction, rolling back on any error.
func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Warn("transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// AppendMessage inserts one chat message.
func (s *SQLStore) AppendMessage(ctx context.Context, userID int64, role domain.Role, message string) (*domain.ChatMessage, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("append message: invalid role %q", role)
	}
	createdAt := s.now().UTC().Truncate(time.Second)

	query := `INSERT INTO chat_history (user_id, role, message, created_at) VALUES (?, ?, ?, ?) RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, s.q(query), userID, string(role), message, createdAt.Unix()).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}

	return &domain.ChatMessage{
		ID:        id,
		UserID:    userID,
		Role:      role,
		Message:   message,
		CreatedAt: createdAt,
	}, nil
}

// RecentMessages returns up to limit messages for a user, newest first.
func (s *SQLStore) RecentMessages(ctx context.Context, userID int64, limit int) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, message, created_at
		FROM chat_history WHERE user_id = ?
		ORDER BY id DESC LIMIT ?`
	return s.queryMessages(ctx, s.q(query), userID, limit)
}

// ListMessages returns every message for a user in ascending ID order.
func (s *SQLStore) ListMessages(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, user_id, role, message, created_at
		FROM chat_history WHERE user_id = ?
		ORDER BY id ASC`
	return s.queryMessages(ctx, s.q(query), userID)
}

func (s *SQLStore) queryMessages(ctx context.Context, query string, args ...any) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close chat history rows", "error", closeErr)
		}
	}()

	messages := make([]domain.ChatMessage, 0)
	for rows.Next() {
		var m domain.ChatMessage
		var role string
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message row: %w", err)
		}
		if m.Role, err = domain.ParseRole(role); err != nil {
			return nil, fmt.Errorf("chat message %d: %w", m.ID, err)
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}
	return messages, nil
}

// CreateUser inserts a user with an already hashed password.
func (s *SQLStore) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	createdAt := s.now().UTC().Truncate(time.Second)
	query := `INSERT INTO users (email, password, created_at) VALUES (?, ?, ?) RETURNING id`

	var id int64
	if err := s.db.QueryRowContext(ctx, s.q(query), email, passwordHash, createdAt.Unix()).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &domain.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: createdAt}, nil
}

// GetUser retrieves a user by ID.
func (s *SQLStore) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	query := `SELECT id, email, password, created_at FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, s.q(query), userID))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, password, created_at FROM users WHERE email = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, s.q(query), email))
}

func (s *SQLStore) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var createdAt int64
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, nil
}

// UpdatePassword replaces a user's password hash.
func (s *SQLStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET password = ? WHERE id = ?`), passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRows(result, userID)
}

// CreateResetToken stores a password reset token.
func (s *SQLStore) CreateResetToken(ctx context.Context, token *domain.PasswordResetToken) error {
	query := `INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.q(query), token.Token, token.UserID, token.ExpiresAt.Unix()); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// GetResetToken retrieves a reset token.
func (s *SQLStore) GetResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	query := `SELECT token, user_id, expires_at FROM password_reset_tokens WHERE token = ?`

	var t domain.PasswordResetToken
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, s.q(query), token).Scan(&t.Token, &t.UserID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reset token: %w", err)
	}
	t.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &t, nil
}

// ResetPassword updates the password and deletes the consumed token in one transaction.
func (s *SQLStore) ResetPassword(ctx context.Context, userID int64, token, passwordHash string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.q(`UPDATE users SET password = ? WHERE id = ?`), passwordHash, userID)
		if err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := requireRows(result, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM password_reset_tokens WHERE token = ?`), token); err != nil {
			return fmt.Errorf("delete reset token: %w", err)
		}
		return nil
	})
}

// DeleteAccount removes every row owned by the user in one transaction.
func (s *SQLStore) DeleteAccount(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM chat_history WHERE user_id = ?`), userID); err != nil {
			return fmt.Errorf("delete chat history: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM password_reset_tokens WHERE user_id = ?`), userID); err != nil {
			return fmt.Errorf("delete reset tokens: %w", err)
		}
		result, err := tx.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return requireRows(result, userID)
	})
}

// DeleteExpiredResetTokens removes tokens that expired before now.
func (s *SQLStore) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q(`DELETE FROM password_reset_tokens WHERE expires_at <= ?`), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return result.RowsAffected()
}

func requireRows(result sql.Result, userID int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("write affected 0 rows", "user_id", userID)
		return ErrUserNotFound
	}
	return nil
}
