// Package domain contains core domain types for the SilayLearn backend.
package domain

import (
	"fmt"
	"time"
)

// Role identifies who authored a chat message.
type Role string

const (
	// RoleUser marks a message typed by the learner.
	RoleUser Role = "user"
	// RoleAssistant marks a reply produced by the AI provider.
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ParseRole converts a stored role column into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown chat role %q", s)
	}
	return r, nil
}

// ChatMessage is one persisted chat turn. ID and CreatedAt are assigned by the store.
type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
