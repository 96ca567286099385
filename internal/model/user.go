package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID
	Email    string
	Name     string
	JoinedAt time.Time
}

type AuthSession struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func (s *AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

type PasswordReset struct {
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type SyncStatus struct {
	UserID        uuid.UUID
	Records       []string
	LastUpdatedAt *time.Time
}
