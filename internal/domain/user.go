package domain

import (
	"time"
)

// User is an account row. PasswordHash holds a bcrypt hash, never the plain password.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PasswordResetToken is a single-use token emailed to a user.
type PasswordResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
