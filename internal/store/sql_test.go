package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silaylearn/silay-api/internal/config"
	"github.com/silaylearn/silay-api/internal/domain"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRebind(t *testing.T) {
	require.Equal(t, "SELECT ? FROM t WHERE a = ?", sqliteDialect.rebind("SELECT ? FROM t WHERE a = ?"))
	require.Equal(t, "SELECT $1 FROM t WHERE a = $2", postgresDialect.rebind("SELECT ? FROM t WHERE a = ?"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	long := strings.Repeat("x", 500) + "\nsecond line"
	first, err := s.AppendMessage(ctx, 42, domain.RoleUser, "Hello")
	require.NoError(t, err)
	second, err := s.AppendMessage(ctx, 42, domain.RoleAssistant, long)
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, 7, domain.RoleUser, "other user")
	require.NoError(t, err)

	require.Greater(t, second.ID, first.ID)
	require.Equal(t, fixed, first.CreatedAt)

	all, err := s.ListMessages(ctx, 42)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Hello", all[0].Message)
	require.Equal(t, domain.RoleAssistant, all[1].Role)
	require.Equal(t, long, all[1].Message, "messages are stored verbatim")
	require.Equal(t, fixed, all[1].CreatedAt)

	recent, err := s.RecentMessages(ctx, 42, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, second.ID, recent[0].ID)
}

func TestListMessagesEmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)
	msgs, err := s.ListMessages(context.Background(), 99)
	require.NoError(t, err)
	require.NotNil(t, msgs)
	require.Empty(t, msgs)
}

func TestAppendMessageRejectsUnknownRole(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AppendMessage(context.Background(), 1, domain.Role("system"), "nope")
	require.Error(t, err)
}

func TestUsersAndPasswordReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "ana@example.com", "hash-1")
	require.NoError(t, err)

	got, err := s.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	expires := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	require.NoError(t, s.CreateResetToken(ctx, &domain.PasswordResetToken{Token: "tok", UserID: u.ID, ExpiresAt: expires}))

	tok, err := s.GetResetToken(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, u.ID, tok.UserID)
	require.Equal(t, expires, tok.ExpiresAt)

	require.NoError(t, s.ResetPassword(ctx, u.ID, "tok", "hash-2"))

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "hash-2", got.PasswordHash)

	tok, err = s.GetResetToken(ctx, "tok")
	require.NoError(t, err)
	require.Nil(t, tok, "token is consumed by the reset")
}

func TestResetPasswordUnknownUserRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateResetToken(ctx, &domain.PasswordResetToken{Token: "orphan", UserID: 404, ExpiresAt: time.Now().Add(time.Hour)}))
	err := s.ResetPassword(ctx, 404, "orphan", "hash")
	require.ErrorIs(t, err, ErrUserNotFound)

	tok, err := s.GetResetToken(ctx, "orphan")
	require.NoError(t, err)
	require.NotNil(t, tok)
}

func TestDeleteAccountCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "ben@example.com", "hash")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, u.ID, domain.RoleUser, "hi")
	require.NoError(t, err)
	require.NoError(t, s.CreateResetToken(ctx, &domain.PasswordResetToken{Token: "t1", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, s.DeleteAccount(ctx, u.ID))

	msgs, err := s.ListMessages(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)
	user, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, user)
	tok, err := s.GetResetToken(ctx, "t1")
	require.NoError(t, err)
	require.Nil(t, tok)

	require.ErrorIs(t, s.DeleteAccount(ctx, u.ID), ErrUserNotFound)
}

func TestDeleteExpiredResetTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateResetToken(ctx, &domain.PasswordResetToken{Token: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.CreateResetToken(ctx, &domain.PasswordResetToken{Token: "new", UserID: 1, ExpiresAt: now.Add(time.Hour)}))

	n, err := s.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	tok, err := s.GetResetToken(ctx, "new")
	require.NoError(t, err)
	require.NotNil(t, tok)
}
